// Package cachetest answers go-redis commands from process memory so cache
// behaviour can be tested without a Redis server. Only the commands the
// directory cache issues are understood: GET, SET, SCAN and DEL.
package cachetest

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Server is the in-memory keyspace behind a client returned by NewClient.
type Server struct {
	mu    sync.Mutex
	data  map[string]string
	calls map[string]int
}

// NewClient returns a client whose commands never leave the process.
func NewClient() (*redis.Client, *Server) {
	s := &Server{data: map[string]string{}, calls: map[string]int{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(s)
	return client, s
}

// Calls reports how often a command (lower case, e.g. "get") was issued.
func (s *Server) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// Keys lists the stored keys in order.
func (s *Server) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Put stores a raw value, e.g. to plant a corrupt entry.
func (s *Server) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *Server) DialHook(next redis.DialHook) redis.DialHook { return next }

func (s *Server) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (s *Server) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls[cmd.Name()]++
		args := cmd.Args()

		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := s.data[arg(args, 1)]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			s.data[arg(args, 1)] = arg(args, 2)
			c.SetVal("OK")
		case *redis.ScanCmd:
			pattern := "*"
			for i := 2; i+1 < len(args); i += 2 {
				if arg(args, i) == "match" {
					pattern = arg(args, i+1)
				}
			}
			var page []string
			for k := range s.data {
				if ok, _ := path.Match(pattern, k); ok {
					page = append(page, k)
				}
			}
			sort.Strings(page)
			c.SetVal(page, 0)
		case *redis.IntCmd:
			var n int64
			for i := 1; i < len(args); i++ {
				if _, ok := s.data[arg(args, i)]; ok {
					delete(s.data, arg(args, i))
					n++
				}
			}
			c.SetVal(n)
		default:
			err := fmt.Errorf("cachetest: unsupported command %q", cmd.Name())
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

func arg(args []any, i int) string {
	if i >= len(args) {
		return ""
	}
	switch v := args[i].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
