package paging

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)

	gotT, gotID, err := DecodeCursor(EncodeCursor(at, id))
	require.NoError(t, err)
	assert.True(t, gotT.Equal(at))
	assert.Equal(t, id, gotID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{
		"",
		"not base64!!",
		"bm8tY29sb24",      // "no-colon"
		"eDo1ZjM0",         // "x:5f34" bad nanos
		"MTIzOm5vdC11dWlk", // "123:not-uuid"
	} {
		_, _, err := DecodeCursor(cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor, cursor)
	}
}
