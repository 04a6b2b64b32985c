package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAccount(t *testing.T) {
	require.NoError(t, ValidateAccount("Tester#1234"))
	require.NoError(t, ValidateAccount("dtmhawk#4430"))

	require.Error(t, ValidateAccount(""))
	require.Error(t, ValidateAccount("NoDiscriminator"))
	require.Error(t, ValidateAccount("#1234"))
	require.Error(t, ValidateAccount("Name#"))
}

func TestParseRealm(t *testing.T) {
	realm, err := ParseRealm("")
	require.NoError(t, err)
	require.Equal(t, RealmPC, realm)

	realm, err = ParseRealm("XBOX")
	require.NoError(t, err)
	require.Equal(t, RealmXbox, realm)

	_, err = ParseRealm("dreamcast")
	require.Error(t, err)
}

func TestRemoteErrorMessages(t *testing.T) {
	err := NewRemoteError(KindPrivateProfile, "Bar#1111", nil)
	require.Contains(t, err.Message(), "private")
	require.Contains(t, err.Message(), "Bar#1111")

	err = NewRemoteError(KindAccountNotFound, "Missing#0000", nil)
	require.Contains(t, err.Message(), "not found")

	err = &RemoteError{Kind: KindRateLimited, RetryAfter: 15000000000}
	require.Contains(t, err.Message(), "15s")

	require.Equal(t, KindPrivateProfile, KindOf(NewRemoteError(KindPrivateProfile, "X#1", nil)))
	require.Equal(t, ErrorKind(""), KindOf(nil))
}
