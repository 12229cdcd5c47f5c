package upload

import (
	"testing"

	registry_errors "upload-registry/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() NewParams {
	return NewParams{
		UserID:       "u1",
		FileID:       "abc",
		FileName:     "x.png",
		FileSize:     100,
		ProviderName: "amazon",
		BucketName:   "b",
		ObjectKey:    "k",
	}
}

func TestNewDerivesIDAndDefaults(t *testing.T) {
	u, err := New(validParams())
	require.NoError(t, err)

	assert.Equal(t, ResolveID("u1", "abc", "x.png", 100), u.ID)
	assert.Equal(t, u.ID, u.UploadID())
	assert.Equal(t, DefaultNamespace, u.ProviderNamespace)
	assert.NotNil(t, u.PartList)
	assert.Empty(t, u.PartList)
}

func TestNewKeepsExplicitID(t *testing.T) {
	p := validParams()
	p.ID = "upld-custom"

	u, err := New(p)
	require.NoError(t, err)
	assert.Equal(t, "upld-custom", u.ID)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *NewParams)
	}{
		{name: "missing user", mutate: func(p *NewParams) { p.UserID = "" }},
		{name: "missing provider", mutate: func(p *NewParams) { p.ProviderName = "" }},
		{name: "negative size", mutate: func(p *NewParams) { p.FileSize = -1 }},
		{name: "resumable id without resumable", mutate: func(p *NewParams) { p.ResumableID = "session-1" }},
		{name: "zero part number", mutate: func(p *NewParams) { p.PartList = []Part{{Number: 0, ETag: "e"}} }},
		{name: "conflicting parts", mutate: func(p *NewParams) {
			p.PartList = []Part{{Number: 1, ETag: "a"}, {Number: 1, ETag: "b"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := New(p)
			assert.ErrorIs(t, err, registry_errors.ErrValidation)
		})
	}
}

func TestApplyMergesMutableFields(t *testing.T) {
	u, err := New(validParams())
	require.NoError(t, err)

	resumable := true
	sessionID := "mpu-1"
	err = u.Apply(UpdateParams{
		Resumable:   &resumable,
		ResumableID: &sessionID,
		PartData:    map[string]interface{}{"md5": "ffff", "size": 5},
		AddParts:    []Part{{Number: 1, ETag: "e1"}, {Number: 2, ETag: "e2"}},
	})
	require.NoError(t, err)

	assert.True(t, u.Resumable)
	assert.Equal(t, "mpu-1", u.ResumableID)
	assert.Equal(t, "ffff", u.PartData["md5"])
	assert.Equal(t, []Part{{Number: 1, ETag: "e1"}, {Number: 2, ETag: "e2"}}, []Part(u.PartList))
}

func TestApplyIsAtomicOnFailure(t *testing.T) {
	u, err := New(validParams())
	require.NoError(t, err)
	before := u.Clone()

	sessionID := "mpu-1"
	err = u.Apply(UpdateParams{
		ResumableID: &sessionID,
		AddParts:    []Part{{Number: 1, ETag: "e1"}},
	})
	assert.ErrorIs(t, err, registry_errors.ErrValidation)
	assert.Equal(t, before, u)
}

func TestAppendPart(t *testing.T) {
	u, err := New(validParams())
	require.NoError(t, err)

	require.NoError(t, u.AppendPart(Part{Number: 2, ETag: "b"}))
	require.NoError(t, u.AppendPart(Part{Number: 1, ETag: "a"}))
	// retried chunk
	require.NoError(t, u.AppendPart(Part{Number: 2, ETag: "b"}))

	assert.Equal(t, []Part{{Number: 2, ETag: "b"}, {Number: 1, ETag: "a"}}, []Part(u.PartList))

	err = u.AppendPart(Part{Number: 1, ETag: "other"})
	assert.ErrorIs(t, err, registry_errors.ErrValidation)
}

func TestMatchesIdentity(t *testing.T) {
	u, err := New(validParams())
	require.NoError(t, err)

	size := int64(100)
	other := int64(101)
	assert.True(t, u.MatchesIdentity("", "", "", nil))
	assert.True(t, u.MatchesIdentity("u1", "abc", "x.png", &size))
	assert.False(t, u.MatchesIdentity("u2", "", "", nil))
	assert.False(t, u.MatchesIdentity("", "", "", &other))
	assert.False(t, u.MatchesIdentity("", "abc", "y.png", nil))
}

func TestCloneDoesNotShareState(t *testing.T) {
	u, err := New(validParams())
	require.NoError(t, err)
	require.NoError(t, u.Apply(UpdateParams{PartData: map[string]interface{}{"k": "v"}}))

	c := u.Clone()
	c.PartData["k"] = "changed"
	c.PartList = append(c.PartList, Part{Number: 9, ETag: "z"})

	assert.Equal(t, "v", u.PartData["k"])
	assert.Empty(t, u.PartList)
}

func TestResidence(t *testing.T) {
	p := validParams()
	p.ProviderLocation = "us-west-2"
	u, err := New(p)
	require.NoError(t, err)

	name, opts := u.Residence()
	assert.Equal(t, "amazon", name)
	assert.Equal(t, ResidenceOptions{Namespace: DefaultNamespace, Location: "us-west-2"}, opts)
}
