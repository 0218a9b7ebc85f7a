package bot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voicetask/internal/todoist"
)

type fakeDirectory struct {
	projects []todoist.Project
}

func (f *fakeDirectory) Peek() []todoist.Project { return f.projects }

func TestResolvePrefersExplicitSelection(t *testing.T) {
	t.Parallel()

	sessions := NewSessions()
	resolver := &ProjectResolver{
		Sessions:         sessions,
		DefaultProjectID: "999",
		Directory:        &fakeDirectory{projects: []todoist.Project{{ID: "999", Name: "Inbox"}}},
	}

	id, name := resolver.Resolve(7)
	require.Equal(t, "999", id)
	require.Equal(t, "Inbox", name)

	sessions.Select(7, Selection{ProjectID: "42", ProjectName: "Work"})
	id, name = resolver.Resolve(7)
	require.Equal(t, "42", id)
	require.Equal(t, "Work", name)
}

func TestResolveDefaultWithoutCachedName(t *testing.T) {
	t.Parallel()

	resolver := &ProjectResolver{
		Sessions:         NewSessions(),
		DefaultProjectID: "999",
		Directory:        &fakeDirectory{},
	}

	id, name := resolver.Resolve(7)
	require.Equal(t, "999", id)
	require.Empty(t, name)
}

func TestResolveNothingConfigured(t *testing.T) {
	t.Parallel()

	resolver := &ProjectResolver{Sessions: NewSessions()}

	id, name := resolver.Resolve(7)
	require.Empty(t, id)
	require.Empty(t, name)
}

func TestSessionsAreKeyedPerUser(t *testing.T) {
	t.Parallel()

	sessions := NewSessions()
	sessions.Select(1, Selection{ProjectID: "a"})
	sessions.Select(2, Selection{ProjectID: "b"})

	sel, ok := sessions.Get(1)
	require.True(t, ok)
	require.Equal(t, "a", sel.ProjectID)

	sel, ok = sessions.Get(2)
	require.True(t, ok)
	require.Equal(t, "b", sel.ProjectID)

	_, ok = sessions.Get(3)
	require.False(t, ok)
}
