package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap_Deterministic(t *testing.T) {
	for _, ext := range []string{"user_2abc", "", "ñandú", "a b c"} {
		require.Equal(t, Map(ext), Map(ext), ext)
	}
}

func TestMap_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		id := Map(fmt.Sprintf("user_%d", i))
		require.True(t, Valid(id), id)
		require.Len(t, id, 36)
	}
}

func TestMap_Distinct(t *testing.T) {
	seen := map[string]string{}
	for i := 0; i < 1000; i++ {
		ext := fmt.Sprintf("user_%d", i)
		id := Map(ext)
		prev, dup := seen[id]
		require.False(t, dup, "colisión %s / %s", prev, ext)
		seen[id] = ext
	}
}

func TestMap_MatchesDigestPrefix(t *testing.T) {
	sum := sha256.Sum256([]byte(Namespace + "user_42"))
	h := hex.EncodeToString(sum[:16])
	want := h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
	require.Equal(t, want, Map("user_42"))
}

func TestValid(t *testing.T) {
	require.False(t, Valid("not-a-uuid"))
	require.False(t, Valid("ABCDEF00-0000-0000-0000-000000000000"))
	require.True(t, Valid("abcdef00-0000-0000-0000-000000000000"))
}
