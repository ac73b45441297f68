package diskmanager_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/MikhailWahib/kvs/internal/diskmanager"
	"github.com/stretchr/testify/require"
)

func TestDiskManager_Open(t *testing.T) {
	dm := diskmanager.NewDiskManager()
	filePath := filepath.Join(t.TempDir(), "testfile1.log")
	defer func() {
		_ = dm.Close(filePath)
	}()

	// Test creating a new file
	handle, err := dm.Open(filePath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err, "Expected no error on file creation")
	require.NotNil(t, handle, "Expected valid file handle, got nil")

	// Reopening while open returns the cached handle
	again, err := dm.Open(filePath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	require.Same(t, handle, again, "Expected cached handle")

	// Test reopening existing file
	err = dm.Close(filePath)
	require.NoError(t, err, "Expected no error on close")

	handle, err = dm.Open(filePath, os.O_RDWR, 0644)
	require.NoError(t, err, "Expected no error opening existing file")
	require.NotNil(t, handle, "Expected valid file handle on reopening")

	// Test opening non-existent file without create flag
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.log")
	_, err = dm.Open(nonExistentPath, os.O_RDWR, 0644)
	require.Error(t, err, "Expected error opening non-existent file without create flag")
	require.True(t, os.IsNotExist(err), "Expected 'file not exist' error")
}

func TestDiskManager_OpenCreatesParentDirs(t *testing.T) {
	dm := diskmanager.NewDiskManager()
	filePath := filepath.Join(t.TempDir(), "a", "b", "data.log")
	defer func() {
		_ = dm.Close(filePath)
	}()

	_, err := dm.Open(filePath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	require.FileExists(t, filePath)
}

func TestFileHandle_ReadWriteSeek(t *testing.T) {
	dm := diskmanager.NewDiskManager()
	filePath := filepath.Join(t.TempDir(), "testfile2.log")
	defer func() {
		_ = dm.Close(filePath)
	}()

	handle, err := dm.Open(filePath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	data := []byte("Hello, world!")
	n, err := handle.Write(data)
	require.NoError(t, err, "Expected no error on Write")
	require.Equal(t, len(data), n)

	require.NoError(t, handle.Sync(), "Expected no error on Sync")

	_, err = handle.Seek(7, io.SeekStart)
	require.NoError(t, err)
	readData := make([]byte, 5)
	_, err = io.ReadFull(handle, readData)
	require.NoError(t, err)
	require.Equal(t, "world", string(readData))

	// Appending after a read requires seeking back to the end
	end, err := handle.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), end)

	_, err = handle.Write([]byte("\nHiii!"))
	require.NoError(t, err)

	_, err = handle.Seek(0, io.SeekStart)
	require.NoError(t, err)
	all, err := io.ReadAll(handle)
	require.NoError(t, err)
	require.Equal(t, "Hello, world!\nHiii!", string(all))
}

func TestFileHandle_Truncate(t *testing.T) {
	dm := diskmanager.NewDiskManager()
	filePath := filepath.Join(t.TempDir(), "testfile3.log")
	defer func() {
		_ = dm.Close(filePath)
	}()

	handle, err := dm.Open(filePath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	_, err = handle.Write([]byte("keep|drop"))
	require.NoError(t, err)
	require.NoError(t, handle.Truncate(4))
	require.NoError(t, dm.Close(filePath))

	content, err := os.ReadFile(filePath)
	require.NoError(t, err)
	require.Equal(t, "keep", string(content))
}

func TestDiskManager_Delete(t *testing.T) {
	dm := diskmanager.NewDiskManager()
	filePath := filepath.Join(t.TempDir(), "testfile4.log")

	handle, err := dm.Open(filePath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err, "Expected no error on Open")

	_, err = handle.Write([]byte("Test data"))
	require.NoError(t, err)

	err = dm.Delete(filePath)
	require.NoError(t, err, "Expected no error on Delete")

	_, err = os.Stat(filePath)
	require.True(t, os.IsNotExist(err), "Expected file %s to be deleted, but it exists", filePath)

	// Test deleting non-existent file
	err = dm.Delete(filePath)
	require.Error(t, err, "Expected error when deleting non-existent file")
	require.True(t, os.IsNotExist(err), "Expected 'file not exist' error")
}
