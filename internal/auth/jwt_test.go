package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	token, exp, err := Issue("tanzschule", "secret", time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := Parse(token, "secret", "tanzschule")
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "tanzschule", claims.Issuer)
}

func TestParseRejectsWrongKeyAndIssuer(t *testing.T) {
	token, _, err := Issue("tanzschule", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "other-key", "tanzschule")
	assert.Error(t, err)

	_, err = Parse(token, "secret", "someone-else")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue("tanzschule", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "secret", "tanzschule")
	assert.Error(t, err)
}
