package result

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOk(t *testing.T) {
	r := Ok(42)

	require.True(t, r.Success())
	v, ok := r.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, failed := r.Failure()
	assert.False(t, failed)
}

func TestFail(t *testing.T) {
	r := Fail[string](KindNotFound, "File not found")

	require.False(t, r.Success())
	f, ok := r.Failure()
	require.True(t, ok)
	assert.Equal(t, KindNotFound, f.Kind)
	assert.Equal(t, "File not found", f.Error())

	_, ok = r.Value()
	assert.False(t, ok)
}

func TestMatch(t *testing.T) {
	var got string
	Ok("a").Match(func(s string) { got = "ok:" + s }, func(f Failure) { got = "fail" })
	assert.Equal(t, "ok:a", got)

	Fail[string](KindAuth, "nope").Match(func(s string) { got = "ok" }, func(f Failure) { got = "fail:" + f.Message })
	assert.Equal(t, "fail:nope", got)
}

func TestMap(t *testing.T) {
	doubled := Map(Ok(2), func(v int) int { return v * 2 })
	v, ok := doubled.Value()
	require.True(t, ok)
	assert.Equal(t, 4, v)

	failed := Map(Fail[int](KindStorage, "disk full"), func(v int) string { return "unused" })
	f, ok := failed.Failure()
	require.True(t, ok)
	assert.Equal(t, KindStorage, f.Kind)
}

func TestKindDomain(t *testing.T) {
	assert.True(t, KindAuth.Domain())
	assert.True(t, KindNotFound.Domain())
	assert.True(t, KindValidation.Domain())
	assert.False(t, KindUnavailable.Domain())
	assert.False(t, KindTransient.Domain())
	assert.False(t, KindStorage.Domain())
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Ok(map[string]int{"totalFiles": 3}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"totalFiles":3}}`, string(b))

	b, err = json.Marshal(Fail[int](KindNotFound, "File not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"File not found","kind":"not_found"}`, string(b))
}
