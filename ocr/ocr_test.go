package ocr_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/mock"
	"github.com/fwojciec/harvest/ocr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty defaults to english", nil, []string{"eng"}},
		{"two letter codes", []string{"en", "de"}, []string{"eng", "deu"}},
		{"three letter codes", []string{"eng", "fra"}, []string{"eng", "fra"}},
		{"duplicates removed", []string{"en", "eng", "EN"}, []string{"eng"}},
		{"unknown dropped", []string{"not a language", "sw"}, []string{"swa"}},
		{"all unknown defaults", []string{"!!"}, []string{"eng"}},
		{"script variants kept", []string{"chi_sim"}, []string{"chi_sim"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ocr.NormalizeLanguages(tt.in))
		})
	}
}

func TestExtractor_Validate(t *testing.T) {
	t.Parallel()

	t.Run("missing prefix", func(t *testing.T) {
		t.Parallel()
		e := &ocr.Extractor{Engine: &mock.OCREngine{}}
		err := e.Validate()
		assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
		assert.Contains(t, harvest.ErrorMessage(err), "TESSDATA_PREFIX")
	})

	t.Run("configured", func(t *testing.T) {
		t.Parallel()
		e := &ocr.Extractor{Engine: &mock.OCREngine{}, TessdataPrefix: "/usr/share/tessdata"}
		assert.NoError(t, e.Validate())
	})
}

func TestExtractor_ExtractImage(t *testing.T) {
	t.Parallel()

	t.Run("recognizes once per content and languages", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		engine := &mock.OCREngine{
			RecognizeFn: func(_ context.Context, _ []byte, langs []string) (string, error) {
				calls.Add(1)
				assert.Equal(t, []string{"eng", "deu"}, langs)
				return "hello", nil
			},
		}
		e := &ocr.Extractor{Engine: engine, Cache: memoryCache(), TessdataPrefix: "/tessdata"}
		img := testPNG(t)

		text, err := e.ExtractImage(context.Background(), img, []string{"en", "de"})
		require.NoError(t, err)
		assert.Equal(t, "hello", text)

		text, err = e.ExtractImage(context.Background(), img, []string{"eng", "deu"})
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("different languages miss the cache", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		engine := &mock.OCREngine{
			RecognizeFn: func(context.Context, []byte, []string) (string, error) {
				calls.Add(1)
				return "text", nil
			},
		}
		e := &ocr.Extractor{Engine: engine, Cache: memoryCache(), TessdataPrefix: "/tessdata"}
		img := testPNG(t)

		_, err := e.ExtractImage(context.Background(), img, []string{"en"})
		require.NoError(t, err)
		_, err = e.ExtractImage(context.Background(), img, []string{"fr"})
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("concurrent requests share one recognition", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		engine := &mock.OCREngine{
			RecognizeFn: func(context.Context, []byte, []string) (string, error) {
				calls.Add(1)
				return "shared", nil
			},
		}
		e := &ocr.Extractor{Engine: engine, Cache: memoryCache(), TessdataPrefix: "/tessdata"}
		img := testPNG(t)

		var wg sync.WaitGroup
		results := make([]string, 16)
		for i := range results {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				text, err := e.ExtractImage(context.Background(), img, nil)
				assert.NoError(t, err)
				results[i] = text
			}()
		}
		wg.Wait()

		for _, r := range results {
			assert.Equal(t, "shared", r)
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("a canceled caller does not cancel others waiting on the same image", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		engine := &mock.OCREngine{
			RecognizeFn: func(ctx context.Context, _ []byte, _ []string) (string, error) {
				once.Do(func() { close(started) })
				<-release
				if err := ctx.Err(); err != nil {
					return "", err
				}
				return "scanned page", nil
			},
		}
		e := &ocr.Extractor{Engine: engine, Cache: memoryCache(), TessdataPrefix: "/tessdata"}
		img := testPNG(t)

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := e.ExtractImage(ctxA, img, nil)
			errA <- err
		}()
		<-started

		type result struct {
			text string
			err  error
		}
		resB := make(chan result, 1)
		go func() {
			text, err := e.ExtractImage(context.Background(), img, nil)
			resB <- result{text, err}
		}()
		time.Sleep(20 * time.Millisecond)

		cancelA()
		assert.ErrorIs(t, <-errA, context.Canceled)

		close(release)
		b := <-resB
		require.NoError(t, b.err)
		assert.Equal(t, "scanned page", b.text)
	})

	t.Run("undecodable image", func(t *testing.T) {
		t.Parallel()

		engine := &mock.OCREngine{
			RecognizeFn: func(context.Context, []byte, []string) (string, error) {
				t.Fatal("engine must not be called")
				return "", nil
			},
		}
		e := &ocr.Extractor{Engine: engine, TessdataPrefix: "/tessdata"}

		_, err := e.ExtractImage(context.Background(), []byte("not an image"), nil)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("engine failure is not cached", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		engine := &mock.OCREngine{
			RecognizeFn: func(context.Context, []byte, []string) (string, error) {
				if calls.Add(1) == 1 {
					return "", harvest.Errorf(harvest.EEXTERNAL, "tesseract exited with status 1")
				}
				return "second", nil
			},
		}
		e := &ocr.Extractor{Engine: engine, Cache: memoryCache(), TessdataPrefix: "/tessdata"}
		img := testPNG(t)

		_, err := e.ExtractImage(context.Background(), img, nil)
		assert.Equal(t, harvest.EEXTERNAL, harvest.ErrorCode(err))

		text, err := e.ExtractImage(context.Background(), img, nil)
		require.NoError(t, err)
		assert.Equal(t, "second", text)
	})

	t.Run("cache read failure falls through to engine", func(t *testing.T) {
		t.Parallel()

		cache := &mock.OCRCache{
			GetOCRFn: func(context.Context, []byte, []string) (string, bool, error) {
				return "", false, harvest.Errorf(harvest.ESTORAGE, "database is locked")
			},
			SetOCRFn: func(context.Context, []byte, []string, string) error { return nil },
		}
		engine := &mock.OCREngine{
			RecognizeFn: func(context.Context, []byte, []string) (string, error) { return "ok", nil },
		}
		e := &ocr.Extractor{Engine: engine, Cache: cache, TessdataPrefix: "/tessdata"}

		text, err := e.ExtractImage(context.Background(), testPNG(t), nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
	})

	t.Run("unconfigured", func(t *testing.T) {
		t.Parallel()

		e := &ocr.Extractor{Engine: &mock.OCREngine{}}
		_, err := e.ExtractImage(context.Background(), testPNG(t), nil)
		assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
	})
}

func TestExtractor_RenderPDFPage(t *testing.T) {
	t.Parallel()

	t.Run("rasterizes then recognizes", func(t *testing.T) {
		t.Parallel()

		img := testPNG(t)
		raster := &mock.Rasterizer{
			RasterizePageFn: func(_ context.Context, path string, page int) ([]byte, error) {
				assert.Equal(t, "/tmp/report.pdf", path)
				assert.Equal(t, 3, page)
				return img, nil
			},
		}
		engine := &mock.OCREngine{
			RecognizeFn: func(_ context.Context, data []byte, langs []string) (string, error) {
				assert.Equal(t, img, data)
				assert.Equal(t, []string{"fra"}, langs)
				return "page three", nil
			},
		}
		e := &ocr.Extractor{Engine: engine, Rasterizer: raster, TessdataPrefix: "/tessdata"}

		text, err := e.RenderPDFPage(context.Background(), "/tmp/report.pdf", 3, []string{"fr"})
		require.NoError(t, err)
		assert.Equal(t, "page three", text)
	})

	t.Run("rasterizer failure", func(t *testing.T) {
		t.Parallel()

		raster := &mock.Rasterizer{
			RasterizePageFn: func(context.Context, string, int) ([]byte, error) {
				return nil, harvest.Errorf(harvest.EEXTERNAL, "pdftoppm exited with status 99")
			},
		}
		e := &ocr.Extractor{Engine: &mock.OCREngine{}, Rasterizer: raster, TessdataPrefix: "/tessdata"}

		_, err := e.RenderPDFPage(context.Background(), "/tmp/x.pdf", 1, nil)
		assert.Equal(t, harvest.EEXTERNAL, harvest.ErrorCode(err))
		assert.Contains(t, err.Error(), "rasterize page 1")
	})

	t.Run("missing rasterizer", func(t *testing.T) {
		t.Parallel()

		e := &ocr.Extractor{Engine: &mock.OCREngine{}, TessdataPrefix: "/tessdata"}
		_, err := e.RenderPDFPage(context.Background(), "/tmp/x.pdf", 1, nil)
		assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
	})
}

func memoryCache() *mock.OCRCache {
	var mu sync.Mutex
	m := map[string]string{}
	return &mock.OCRCache{
		GetOCRFn: func(_ context.Context, data []byte, langs []string) (string, bool, error) {
			mu.Lock()
			defer mu.Unlock()
			text, ok := m[harvest.OCRCacheKey(data, langs)]
			return text, ok, nil
		},
		SetOCRFn: func(_ context.Context, data []byte, langs []string, text string) error {
			mu.Lock()
			defer mu.Unlock()
			m[harvest.OCRCacheKey(data, langs)] = text
			return nil
		},
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.SetGray(2, 2, color.Gray{Y: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
