// Package server exposes a Store over the Redis serialization protocol.
//
// Supported commands: PING, ECHO, QUIT, GET, SET, DEL, EXISTS, KEYS and
// DBSIZE. Values are stored as the raw bytes the client sends.
//
// DEL deletes its keys in order and stops at the first failure. When keys
// were already deleted the error reply says how many.
package server

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/MikhailWahib/kvs"
	"github.com/tidwall/match"
	"github.com/tidwall/redcon"
)

// Server serves one Store to any number of RESP clients. The Store
// serializes the calls.
type Server struct {
	store *kvs.Store
	addr  string
	srv   *redcon.Server
}

// New returns a server for store that will listen on addr.
func New(store *kvs.Store, addr string) *Server {
	s := &Server{store: store, addr: addr}
	s.srv = redcon.NewServer(addr, s.handle, s.accept, s.closed)
	return s
}

// ListenAndServe blocks serving clients until Close is called.
func (s *Server) ListenAndServe() error {
	log.Printf("server: listening on %s", s.addr)
	return s.srv.ListenAndServe()
}

// Close stops accepting clients and closes open connections.
func (s *Server) Close() error {
	return s.srv.Close()
}

func (s *Server) accept(conn redcon.Conn) bool {
	log.Printf("server: accepted connection from %s", conn.RemoteAddr())
	return true
}

func (s *Server) closed(conn redcon.Conn, err error) {
	if err != nil {
		log.Printf("server: connection from %s closed: %v", conn.RemoteAddr(), err)
	}
}

func (s *Server) handle(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) == 0 {
		conn.WriteError("ERR empty command")
		return
	}

	name := strings.ToLower(string(cmd.Args[0]))
	args := cmd.Args[1:]

	switch name {
	case "ping":
		switch len(args) {
		case 0:
			conn.WriteString("PONG")
		case 1:
			conn.WriteBulk(args[0])
		default:
			wrongArgs(conn, name)
		}
	case "echo":
		if len(args) != 1 {
			wrongArgs(conn, name)
			return
		}
		conn.WriteBulk(args[0])
	case "quit":
		conn.WriteString("OK")
		_ = conn.Close()
	case "get":
		if len(args) != 1 {
			wrongArgs(conn, name)
			return
		}
		s.get(conn, string(args[0]))
	case "set":
		if len(args) != 2 {
			wrongArgs(conn, name)
			return
		}
		if err := s.store.PutRaw(string(args[0]), args[1]); err != nil {
			writeErr(conn, err)
			return
		}
		conn.WriteString("OK")
	case "del":
		if len(args) == 0 {
			wrongArgs(conn, name)
			return
		}
		s.del(conn, args)
	case "exists":
		if len(args) == 0 {
			wrongArgs(conn, name)
			return
		}
		n := 0
		for _, k := range args {
			if s.store.Exists(string(k)) {
				n++
			}
		}
		conn.WriteInt(n)
	case "keys":
		pattern := "*"
		switch len(args) {
		case 0:
		case 1:
			pattern = string(args[0])
		default:
			wrongArgs(conn, name)
			return
		}
		s.keys(conn, pattern)
	case "dbsize":
		conn.WriteInt(s.store.Len())
	default:
		conn.WriteError("ERR unknown command '" + string(cmd.Args[0]) + "'")
	}
}

func (s *Server) get(conn redcon.Conn, key string) {
	val, err := s.store.GetRaw(key)
	switch {
	case kvs.IsNotFound(err):
		conn.WriteNull()
	case err != nil:
		writeErr(conn, err)
	default:
		conn.WriteBulk(val)
	}
}

func (s *Server) del(conn redcon.Conn, keys [][]byte) {
	n := 0
	for _, k := range keys {
		_, found, err := s.store.DeleteRaw(string(k))
		if err != nil {
			if n == 0 {
				writeErr(conn, err)
				return
			}
			log.Printf("server: DEL of %q failed after deleting %d keys: %v", k, n, err)
			conn.WriteError(fmt.Sprintf("ERR deleted %d keys before failing: %v", n, err))
			return
		}
		if found {
			n++
		}
	}
	conn.WriteInt(n)
}

func (s *Server) keys(conn redcon.Conn, pattern string) {
	var matched []string
	for k := range s.store.Keys() {
		if match.Match(k, pattern) {
			matched = append(matched, k)
		}
	}
	slices.Sort(matched)

	conn.WriteArray(len(matched))
	for _, k := range matched {
		conn.WriteBulkString(k)
	}
}

func wrongArgs(conn redcon.Conn, name string) {
	conn.WriteError("ERR wrong number of arguments for '" + name + "' command")
}

func writeErr(conn redcon.Conn, err error) {
	if kvs.IsCorrupt(err) {
		log.Printf("server: %v", err)
	}
	conn.WriteError("ERR " + err.Error())
}
