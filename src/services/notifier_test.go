package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PopClears(t *testing.T) {
	n := NewNotifier(time.Minute)

	n.Success("browser-1", "Investment Added", "Successfully added 10 shares of AAPL")
	n.Error("browser-1", "Error", "Failed to fetch portfolio data")
	n.Success("browser-2", "Stock added to watchlist", "NVDA has been added to your watchlist.")

	notices := n.Pop("browser-1")
	require.Len(t, notices, 2)
	assert.Equal(t, NoticeSuccess, notices[0].Level)
	assert.Equal(t, NoticeError, notices[1].Level)

	assert.Empty(t, n.Pop("browser-1"))
	assert.Len(t, n.Pop("browser-2"), 1)
}

func TestNotifier_IgnoresEmptyKey(t *testing.T) {
	n := NewNotifier(0)
	n.Success("", "t", "m")
	assert.Nil(t, n.Pop(""))
}

func TestNotifier_Expires(t *testing.T) {
	n := NewNotifier(20 * time.Millisecond)
	n.Success("k", "t", "m")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, n.Pop("k"))
}
