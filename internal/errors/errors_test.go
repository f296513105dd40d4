package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_CarriesMetadata(t *testing.T) {
	base := NewStd("insert failed")
	ee := New(base).
		Component("repository").
		Category(CategoryDatabase).
		Context("alert_id", "a-1").
		Build()

	assert.Equal(t, "insert failed", ee.Error())
	assert.Equal(t, "repository", ee.GetComponent())
	assert.Equal(t, CategoryDatabase, ee.GetCategory())
	assert.Equal(t, "a-1", ee.GetContext()["alert_id"])
	assert.True(t, Is(ee, base))
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuilder_DefaultComponent(t *testing.T) {
	ee := Newf("bad %s", "thing").Build()
	assert.Equal(t, "unknown", ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.GetCategory())
	assert.Equal(t, "bad thing", ee.Error())
}

func TestCategoryOf_WalksChain(t *testing.T) {
	inner := Newf("title is required").Category(CategoryValidation).Build()
	wrapped := fmt.Errorf("dispatch: %w", inner)

	assert.Equal(t, CategoryValidation, CategoryOf(wrapped))
	assert.True(t, IsCategory(wrapped, CategoryValidation))
	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("plain")))
	assert.Equal(t, CategoryGeneric, CategoryOf(nil))
}

func TestReporter_OnlyReportableCategories(t *testing.T) {
	var reported []Category
	SetReporter(func(ee *EnhancedError) { reported = append(reported, ee.GetCategory()) })
	t.Cleanup(func() { SetReporter(nil) })

	_ = Newf("missing field").Category(CategoryValidation).Build()
	_ = Newf("no such alert").Category(CategoryNotFound).Build()
	_ = Newf("db down").Category(CategoryDatabase).Build()
	_ = Newf("bad config").Category(CategoryConfiguration).Build()

	require.Len(t, reported, 2)
	assert.Equal(t, []Category{CategoryDatabase, CategoryConfiguration}, reported)
}

func TestInitSentry_EmptyDSN(t *testing.T) {
	flush, err := InitSentry(SentryConfig{})
	require.Error(t, err)
	assert.Equal(t, CategoryConfiguration, CategoryOf(err))
	require.NotNil(t, flush)
	flush()
}

func TestMessages(t *testing.T) {
	t.Parallel()
	got := Messages([]error{NewStd("a"), nil, NewStd("b")})
	assert.Equal(t, "a; b", got)
}
