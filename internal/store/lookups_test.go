package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgrep/reputation-api/internal/models"
)

type MockConn struct {
	driver.Conn
	ExecFunc  func(ctx context.Context, query string, args ...any) error
	QueryFunc func(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Batch     *MockBatch
}

func (m *MockConn) Exec(ctx context.Context, query string, args ...any) error {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, query, args...)
	}
	return nil
}

func (m *MockConn) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, args...)
	}
	return &MockRows{}, nil
}

func (m *MockConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	if m.Batch == nil {
		m.Batch = &MockBatch{}
	}
	return m.Batch, nil
}

type MockBatch struct {
	driver.Batch
	Appended [][]any
	Sent     bool
	SendErr  error
}

func (b *MockBatch) Append(v ...any) error {
	b.Appended = append(b.Appended, v)
	return nil
}

func (b *MockBatch) Send() error {
	b.Sent = true
	return b.SendErr
}

// MockRows yields Data one row at a time.
type MockRows struct {
	driver.Rows
	Data [][]any
	row  int
}

func (m *MockRows) Next() bool {
	m.row++
	return m.row <= len(m.Data)
}

func (m *MockRows) Scan(dest ...any) error {
	for i, v := range m.Data[m.row-1] {
		assign(dest[i], v)
	}
	return nil
}

func (m *MockRows) Close() error { return nil }
func (m *MockRows) Err() error   { return nil }

func assign(dest any, val any) {
	v := reflect.ValueOf(dest).Elem()
	if val == nil {
		v.Set(reflect.Zero(v.Type()))
		return
	}
	v.Set(reflect.ValueOf(val))
}

func TestEnsureSchema(t *testing.T) {
	var stmts []string
	conn := &MockConn{ExecFunc: func(ctx context.Context, query string, args ...any) error {
		stmts = append(stmts, query)
		return nil
	}}

	require.NoError(t, NewLookupStore(conn).EnsureSchema(context.Background()))
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE DATABASE"))
	assert.Contains(t, stmts[1], "pgrep.profile_lookups")

	conn.ExecFunc = func(ctx context.Context, query string, args ...any) error {
		return errors.New("readonly")
	}
	assert.Error(t, NewLookupStore(conn).EnsureSchema(context.Background()))
}

func TestInsertLookups(t *testing.T) {
	score := 35
	premier := 18000.0
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []models.LookupEvent{
		{ID: uuid.New(), SteamID: "76561198000000001", Score: &score, Label: models.LabelHighlySuspicious, AnomalyCount: 4, FlaggedCount: 2, Premier: &premier, LookedUpAt: at},
		{ID: uuid.New(), SteamID: "76561198000000002", Label: models.LabelInsufficientData, LookedUpAt: at},
	}

	conn := &MockConn{}
	require.NoError(t, NewLookupStore(conn).InsertLookups(context.Background(), events))

	require.NotNil(t, conn.Batch)
	assert.True(t, conn.Batch.Sent)
	require.Len(t, conn.Batch.Appended, 2)
	assert.Equal(t, int32(35), *conn.Batch.Appended[0][3].(*int32))
	assert.Equal(t, uint16(2), conn.Batch.Appended[0][6])
	assert.Nil(t, conn.Batch.Appended[1][3].(*int32))
}

func TestInsertLookups_Empty(t *testing.T) {
	conn := &MockConn{}
	require.NoError(t, NewLookupStore(conn).InsertLookups(context.Background(), nil))
	assert.Nil(t, conn.Batch)
}

func TestInsertLookups_SendError(t *testing.T) {
	conn := &MockConn{Batch: &MockBatch{SendErr: errors.New("timeout")}}
	err := NewLookupStore(conn).InsertLookups(context.Background(), []models.LookupEvent{{ID: uuid.New()}})
	assert.Error(t, err)
}

func TestLookupHistory(t *testing.T) {
	score := int32(72)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	var gotLimit any
	conn := &MockConn{QueryFunc: func(ctx context.Context, query string, args ...any) (driver.Rows, error) {
		gotLimit = args[1]
		return &MockRows{Data: [][]any{
			{at, &score, models.LabelReview, uint16(3), (*float64)(nil), (*float64)(nil)},
			{at.Add(-time.Hour), (*int32)(nil), models.LabelInsufficientData, uint16(0), nil, nil},
		}}, nil
	}}

	entries, err := NewLookupStore(conn).LookupHistory(context.Background(), "76561198000000001", 0)
	require.NoError(t, err)
	assert.Equal(t, 100, gotLimit)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Score)
	assert.Equal(t, 72, *entries[0].Score)
	assert.Equal(t, 3, entries[0].AnomalyCount)
	assert.Nil(t, entries[1].Score)
}
