package playback

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/streamio/streamio/internal/config"
	"github.com/streamio/streamio/internal/plugins"
)

// encodePNG renders a small solid image as PNG bytes.
func encodePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestToWebPFromPNG(t *testing.T) {
	ap := NewArtworkProcessor(90)

	data, err := ap.ToWebP(&Artwork{Data: encodePNG(t), MIMEType: "image/png"})
	require.NoError(t, err)

	// RIFF container with a WEBP fourcc
	require.Greater(t, len(data), 12)
	assert.Equal(t, []byte("RIFF"), data[0:4])
	assert.Equal(t, []byte("WEBP"), data[8:12])
}

func TestToWebPPassesThroughWebPInput(t *testing.T) {
	ap := NewArtworkProcessor(90)

	original := []byte("already-webp-bytes")
	data, err := ap.ToWebP(&Artwork{Data: original, MIMEType: "image/webp"})
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestToWebPRejectsUndecodableData(t *testing.T) {
	ap := NewArtworkProcessor(90)

	_, err := ap.ToWebP(&Artwork{Data: []byte("not an image"), MIMEType: "image/png"})
	assert.Error(t, err)
}

func TestNewArtworkProcessorNormalizesQuality(t *testing.T) {
	assert.Equal(t, float32(90), NewArtworkProcessor(0).quality)
	assert.Equal(t, float32(90), NewArtworkProcessor(101).quality)
	assert.Equal(t, float32(75), NewArtworkProcessor(75).quality)
}

func testPlugin(t *testing.T) (*Plugin, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "playback.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	p := New()
	require.NoError(t, p.Migrate(db))
	require.NoError(t, p.Init(plugins.Deps{
		DB:     db,
		Config: config.DefaultConfig(),
		Logger: hclog.NewNullLogger(),
	}))

	router := gin.New()
	p.RegisterRoutes(router)
	return p, router
}

func TestArtworkEndpointWithoutEmbeddedArt(t *testing.T) {
	p, router := testPlugin(t)

	session, err := p.Sessions().Start(writeMediaFile(t, "plain.mp3"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/playback/sessions/"+session.ID+"/artwork", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSessionsReportsProgressInterval(t *testing.T) {
	_, router := testPlugin(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/playback/sessions", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "progress_interval_seconds")
}

func TestArtworkEndpointUnknownSession(t *testing.T) {
	_, router := testPlugin(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/playback/sessions/missing/artwork", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
