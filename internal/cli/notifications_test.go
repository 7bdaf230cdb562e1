package cli

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/domain"
)

func TestNotifications(t *testing.T) {
	e := newCLIEnv(t)
	createStandup(t, e)
	mustJSON[[]domain.Permission](t, e, "event", "share", "1", "--as", "1", "--grant", "2:viewer")

	notes := mustJSON[[]domain.Notification](t, e, "notifications", "list", "--as", "2")
	require.Len(t, notes, 1)
	assert.Equal(t, domain.ChangeShared, notes[0].Type)
	assert.False(t, notes[0].IsRead)
	require.NotNil(t, notes[0].EventID)
	assert.Equal(t, int64(1), *notes[0].EventID)

	id := strconv.FormatInt(notes[0].ID, 10)
	marked := mustJSON[map[string]int64](t, e, "notifications", "read", id, "--as", "2")
	assert.Equal(t, notes[0].ID, marked["id"])

	unread := mustJSON[[]domain.Notification](t, e, "notifications", "list", "--as", "2", "--unread")
	assert.Empty(t, unread)

	all := mustJSON[[]domain.Notification](t, e, "notifications", "list", "--as", "2")
	require.Len(t, all, 1)
	assert.True(t, all[0].IsRead)
}

func TestNotificationsRead_OtherUser(t *testing.T) {
	e := newCLIEnv(t)
	createStandup(t, e)
	mustJSON[[]domain.Permission](t, e, "event", "share", "1", "--as", "1", "--grant", "2:viewer")
	notes := mustJSON[[]domain.Notification](t, e, "notifications", "list", "--as", "2")
	require.Len(t, notes, 1)

	cliErr, err := jsonError(t, e, "notifications", "read", strconv.FormatInt(notes[0].ID, 10), "--as", "3")
	assert.Equal(t, "not_found", cliErr.Code)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestNotificationsList_Text(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "notifications", "list", "--as", "9")
	require.NoError(t, err)
	assert.Equal(t, "No notifications.\n", out)
}
