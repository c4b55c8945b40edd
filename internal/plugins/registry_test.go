package plugins

import (
	"fmt"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakePlugin records the order migrate/init calls arrive in.
type fakePlugin struct {
	id      string
	initErr error
	calls   *[]string
}

func (f *fakePlugin) ID() string   { return f.id }
func (f *fakePlugin) Name() string { return "Fake " + f.id }

func (f *fakePlugin) Migrate(db *gorm.DB) error {
	*f.calls = append(*f.calls, "migrate:"+f.id)
	return nil
}

func (f *fakePlugin) Init(deps Deps) error {
	*f.calls = append(*f.calls, "init:"+f.id)
	return f.initErr
}

func testDeps() Deps {
	return Deps{Logger: hclog.NewNullLogger()}
}

func TestApplyAllRunsInRegistrationOrder(t *testing.T) {
	var calls []string

	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{id: "one", calls: &calls}))
	require.NoError(t, r.Register(&fakePlugin{id: "two", calls: &calls}))
	require.NoError(t, r.Register(&fakePlugin{id: "three", calls: &calls}))

	require.NoError(t, r.ApplyAll(testDeps()))

	assert.Equal(t, []string{"init:one", "init:two", "init:three"}, calls)
	assert.Equal(t, []string{"one", "two", "three"}, r.List())
}

func TestApplyAllFailsFast(t *testing.T) {
	var calls []string

	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{id: "ok", calls: &calls}))
	require.NoError(t, r.Register(&fakePlugin{id: "bad", calls: &calls, initErr: fmt.Errorf("broken")}))
	require.NoError(t, r.Register(&fakePlugin{id: "never", calls: &calls}))

	err := r.ApplyAll(testDeps())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	// The failing plugin stops the sequence
	assert.Equal(t, []string{"init:ok", "init:bad"}, calls)
}

func TestRegisterRejectsDuplicateIDs(t *testing.T) {
	var calls []string

	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{id: "dup", calls: &calls}))
	assert.Error(t, r.Register(&fakePlugin{id: "dup", calls: &calls}))
}

func TestRegisterAfterApplyFails(t *testing.T) {
	var calls []string

	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{id: "only", calls: &calls}))
	require.NoError(t, r.ApplyAll(testDeps()))

	assert.Error(t, r.Register(&fakePlugin{id: "late", calls: &calls}))
	assert.Error(t, r.ApplyAll(testDeps()))
}

func TestGet(t *testing.T) {
	var calls []string

	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{id: "findme", calls: &calls}))

	p, ok := r.Get("findme")
	require.True(t, ok)
	assert.Equal(t, "findme", p.ID())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}
