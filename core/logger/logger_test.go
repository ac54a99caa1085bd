package logger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorf_TagsError(t *testing.T) {
	cause := errors.New("no such file")
	err := New("serve").Errorf("failed to load config: %w", cause)

	assert.Equal(t, "failed to load config: no such file", err.Error())
	assert.Equal(t, "serve", ErrorTag(err))
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, "serve", ErrorTag(wrapped))
}

func TestWithTag(t *testing.T) {
	assert.Nil(t, WithTag("x", nil))
	assert.Equal(t, "", ErrorTag(nil))
	assert.Equal(t, "", ErrorTag(errors.New("untagged")))

	var nilTagged *TaggedError
	assert.Equal(t, "", nilTagged.Error())
	assert.Equal(t, "", nilTagged.Tag())
	assert.Nil(t, nilTagged.Unwrap())
}

func TestWithTag_KeepsInnermostTag(t *testing.T) {
	inner := WithTag("catalog", errors.New("connection refused"))
	outer := New("serve").Errorf("startup failed: %w", inner)

	assert.Equal(t, "catalog", ErrorTag(outer))
	assert.Equal(t, "startup failed: connection refused", outer.Error())
}
