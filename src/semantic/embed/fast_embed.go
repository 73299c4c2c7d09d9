//go:build fastembed

package embed

import (
	"context"
	"fmt"

	fastembed "github.com/anush008/fastembed-go"
)

// FastEmbedder runs a local ONNX embedding model via fastembed. Only
// compiled in with -tags fastembed since it pulls in the onnxruntime.
type FastEmbedder struct {
	flag *fastembed.FlagEmbedding
}

func NewFastEmbedder(ctx context.Context, opt *FastEmbedOptions) (Embedder, error) {
	if opt == nil {
		opt = &FastEmbedOptions{}
	}
	model := fastembed.BGESmallENV15
	if opt.Model != "" {
		model = fastembed.EmbeddingModel(opt.Model)
	}
	flag, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:     model,
		CacheDir:  opt.CacheDir,
		MaxLength: opt.MaxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("fastembed init: %w", err)
	}
	return &FastEmbedder{flag: flag}, nil
}

func (f *FastEmbedder) Close() error {
	f.flag.Destroy()
	return nil
}

func (f *FastEmbedder) Embed(_ context.Context, q string) ([]float32, error) {
	vec, err := f.flag.QueryEmbed(q)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrNotSupported
	}
	return vec, nil
}
