package model

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rzpsarthak13/orius/internal/core"
)

type call struct {
	sql  string
	args []interface{}
}

// fakeDB records every statement and answers from respond.
type fakeDB struct {
	mu      sync.Mutex
	calls   []call
	trace   *[]string
	respond func(sql string, args []interface{}) ([]core.Row, error)
}

func (f *fakeDB) Execute(ctx context.Context, query string, args ...interface{}) ([]core.Row, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{sql: query, args: args})
	if f.trace != nil {
		*f.trace = append(*f.trace, strings.SplitN(query, " ", 2)[0])
	}
	f.mu.Unlock()

	if f.respond == nil {
		return nil, nil
	}
	return f.respond(query, args)
}

func (f *fakeDB) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

// affectedDB also reports affected rows for deletes.
type affectedDB struct {
	fakeDB
	affected int64
}

func (a *affectedDB) ExecAffected(ctx context.Context, query string, args ...interface{}) (int64, error) {
	a.mu.Lock()
	a.calls = append(a.calls, call{sql: query, args: args})
	a.mu.Unlock()
	return a.affected, nil
}

type fakeBlob struct {
	data []byte
	err  error
}

func (b fakeBlob) Open(ctx context.Context) (io.ReadCloser, error) {
	if b.err != nil {
		return nil, b.err
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

type fakeLocker struct {
	trace *[]string
	fail  bool
	keys  []string
	ttls  []time.Duration
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (core.Unlocker, error) {
	if l.fail {
		return nil, errors.New("lock busy")
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	*l.trace = append(*l.trace, "ACQUIRE")
	return fakeUnlocker{trace: l.trace}, nil
}

func (l *fakeLocker) Close() error { return nil }

type fakeUnlocker struct {
	trace *[]string
}

func (u fakeUnlocker) Release(ctx context.Context) error {
	*u.trace = append(*u.trace, "RELEASE")
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*core.RecordEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event *core.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
