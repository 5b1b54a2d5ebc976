package cart

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain/model"
	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

func TestFileCart_SubmitAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "submissions.json")
	c := NewFileCart(path)
	c.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	state := giftbuilder.Reduce(giftbuilder.InitialState(), giftbuilder.SelectBox{Box: giftbuilder.BoxSelection{BoxID: "B", Price: 40, MaxProducts: 2}})
	first, err := c.Submit(ctx, model.NewCartSubmission("s1", state))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ID, "GIFT-20261014093000-"), first.ID)
	assert.Equal(t, 40.0, first.FinalPrice)

	second, err := c.Submit(ctx, model.NewCartSubmission("s2", state))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	all, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s1", all[0].SessionID)
	assert.Equal(t, "s2", all[1].SessionID)
	assert.Equal(t, "B", all[0].Box.BoxID)
}

func TestFileCart_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := NewFileCart(path).Submit(context.Background(), model.CartSubmission{SessionID: "s1"})
	assert.Error(t, err)
}
