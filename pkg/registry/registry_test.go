package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/langdetect/internal/models"
	"github.com/xhad/langdetect/internal/types"
)

func file(name, body string) models.UploadedFile {
	return models.NewUploadedFile(name, "", []byte(body))
}

func TestResolve(t *testing.T) {
	r := New("/files/")
	refs := r.SetFiles([]models.UploadedFile{file("x.txt", "x"), file("y.txt", "y")})
	require.Len(t, refs, 2)

	x, ok := r.Resolve("x.txt")
	require.True(t, ok)
	y, ok := r.Resolve("y.txt")
	require.True(t, ok)

	assert.NotEqual(t, x.ID, y.ID)
	assert.NotEqual(t, x.URL, y.URL)
	assert.Equal(t, "/files/"+x.ID, x.URL)
	assert.Equal(t, "x.txt", x.Name)

	_, ok = r.Resolve("z.txt")
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	r := New("/files")
	r.SetFiles([]models.UploadedFile{file("doc.html", "<p>hi</p>")})

	ref, ok := r.Resolve("doc.html")
	require.True(t, ok)

	f, ok := r.Open(ref.ID)
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", string(f.Data))

	_, ok = r.Open("no-such-id")
	assert.False(t, ok)
}

func TestSetFilesReleasesPreviousBatch(t *testing.T) {
	r := New("/files")

	var released []types.Reference
	r.OnRelease(func(ref types.Reference) {
		released = append(released, ref)
	})

	first := r.SetFiles([]models.UploadedFile{file("a.txt", "1"), file("b.txt", "2")})
	assert.Equal(t, 2, r.Live())
	assert.Empty(t, released)

	second := r.SetFiles([]models.UploadedFile{file("a.txt", "3")})
	assert.Equal(t, 1, r.Live())
	assert.Len(t, released, 2)

	for _, ref := range first {
		_, ok := r.Open(ref.ID)
		assert.False(t, ok, "old reference %s should be revoked", ref.Name)
	}

	a, ok := r.Resolve("a.txt")
	require.True(t, ok)
	assert.Equal(t, second[0].ID, a.ID)
	f, _ := r.Open(a.ID)
	assert.Equal(t, "3", string(f.Data))

	_, ok = r.Resolve("b.txt")
	assert.False(t, ok)
}

func TestDuplicateNamesLaterWins(t *testing.T) {
	r := New("/files")

	refs := r.SetFiles([]models.UploadedFile{
		file("same.txt", "first"),
		file("other.txt", "o"),
		file("same.txt", "second"),
	})

	assert.Len(t, refs, 2)
	assert.Equal(t, 2, r.Live())

	ref, ok := r.Resolve("same.txt")
	require.True(t, ok)
	f, ok := r.Open(ref.ID)
	require.True(t, ok)
	assert.Equal(t, "second", string(f.Data))
}

func TestReleaseAndReset(t *testing.T) {
	r := New("/files")
	r.SetFiles([]models.UploadedFile{file("a.txt", "1"), file("b.txt", "2")})

	a, _ := r.Resolve("a.txt")
	assert.True(t, r.Release(a.ID))
	assert.False(t, r.Release(a.ID))

	_, ok := r.Resolve("a.txt")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Live())

	r.Reset()
	assert.Equal(t, 0, r.Live())
	_, ok = r.Resolve("b.txt")
	assert.False(t, ok)
}

func TestEmptyFileSet(t *testing.T) {
	r := New("/files")
	r.SetFiles([]models.UploadedFile{file("a.txt", "1")})

	refs := r.SetFiles(nil)
	assert.Empty(t, refs)
	assert.Equal(t, 0, r.Live())
}

func TestConcurrentAccess(t *testing.T) {
	r := New("/files")
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.SetFiles([]models.UploadedFile{file("a.txt", "1"), file("b.txt", "2")})
		}()
		go func() {
			defer wg.Done()
			if ref, ok := r.Resolve("a.txt"); ok {
				r.Open(ref.ID)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, r.Live())
}
