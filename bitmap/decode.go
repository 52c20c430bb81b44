package bitmap

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode wraps every failure to turn a source into pixels
var ErrDecode = errors.New("image decode failed")

// Decode loads an image from a file path, an http(s) URL or a base64 data
// URL and returns its pixels.
func Decode(ctx context.Context, source string) (Pixels, error) {
	data, err := load(ctx, source)
	if err != nil {
		return Pixels{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Pixels{}, fmt.Errorf("%w: %s: %w", ErrDecode, describe(source), err)
	}
	return FromImage(img), nil
}

// DecodeBitmap loads a source and converts it in one step
func DecodeBitmap(ctx context.Context, source string, opts Options) (*Bitmap, error) {
	pixels, err := Decode(ctx, source)
	if err != nil {
		return nil, err
	}
	return Convert(pixels, opts)
}

func load(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "data:"):
		return fromDataURL(source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return fromURL(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read image file: %w", err)
		}
		return data, nil
	}
}

func fromDataURL(source string) ([]byte, error) {
	header, payload, ok := strings.Cut(source, ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	mediaType := strings.TrimPrefix(header, "data:")
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("data URL is not an image: %q", mediaType)
	}
	if strings.HasSuffix(mediaType, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URL: %w", err)
		}
		return data, nil
	}
	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URL: %w", err)
	}
	return []byte(unescaped), nil
}

func fromURL(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return data, nil
}

func describe(source string) string {
	if strings.HasPrefix(source, "data:") {
		header, _, _ := strings.Cut(source, ",")
		return header
	}
	return source
}
