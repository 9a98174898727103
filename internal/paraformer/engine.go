// Package paraformer runs batched acoustic inference through an ONNX
// Paraformer model. The model itself is opaque: features go in, logits and
// alignment peaks come out.
package paraformer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/antelcat/fsmnsub/internal/feature"
	"github.com/antelcat/fsmnsub/internal/recognize"
)

var (
	inputNames  = []string{"speech", "speech_lengths"}
	outputNames = []string{"logits", "token_num", "us_alphas", "us_cif_peak"}
)

var ortInit sync.Once

type Engine struct {
	session    *ort.DynamicAdvancedSession
	extractor  *feature.Extractor
	vocab      *Vocab
	sampleRate int
	logger     *slog.Logger
	closeOnce  sync.Once
}

func NewEngine(
	modelPath string,
	extractor *feature.Extractor,
	vocab *Vocab,
	sampleRate int,
	logger *slog.Logger,
) (*Engine, error) {
	var initErr error
	ortInit.Do(func() {
		if !ort.IsInitialized() {
			initErr = ort.InitializeEnvironment()
		}
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", initErr)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Engine{
		session:    session,
		extractor:  extractor,
		vocab:      vocab,
		sampleRate: sampleRate,
		logger:     logger,
	}, nil
}

func (e *Engine) SampleRate() int { return e.sampleRate }

func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.session.Destroy()
	})
	return err
}

// Recognize extracts features for the batch, runs one forward pass and
// decodes tokens plus per-frame peaks for each segment.
func (e *Engine) Recognize(ctx context.Context, batch [][]float32) ([]recognize.Utterance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}

	log := e.logger.With("method", "Recognize")

	feats, frameCounts := e.extractor.ExtractBatch(batch)
	maxFrames := 0
	for _, c := range frameCounts {
		if c > maxFrames {
			maxFrames = c
		}
	}
	if maxFrames == 0 {
		// Segments shorter than one analysis frame decode to nothing.
		return make([]recognize.Utterance, len(batch)), nil
	}

	speech, err := ort.NewTensor(
		ort.NewShape(int64(len(batch)), int64(maxFrames), int64(e.extractor.Dim())),
		feats,
	)
	if err != nil {
		return nil, fmt.Errorf("create speech tensor: %w", err)
	}
	defer speech.Destroy()

	lengths := make([]int32, len(frameCounts))
	for i, c := range frameCounts {
		lengths[i] = int32(c)
	}
	speechLengths, err := ort.NewTensor(ort.NewShape(int64(len(batch))), lengths)
	if err != nil {
		return nil, fmt.Errorf("create lengths tensor: %w", err)
	}
	defer speechLengths.Destroy()

	outputs := make([]ort.Value, len(outputNames))
	if err := e.session.Run([]ort.Value{speech, speechLengths}, outputs); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	logits, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected logits tensor type %T", outputs[0])
	}
	peaks, ok := outputs[3].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected peak tensor type %T", outputs[3])
	}
	tokenCounts, err := validTokenCounts(outputs[1], len(batch))
	if err != nil {
		return nil, err
	}

	utterances := make([]recognize.Utterance, len(batch))
	for b := range batch {
		utterances[b] = recognize.Utterance{
			Tokens: e.decodeTokens(logits, b, tokenCounts[b]),
			Peaks:  slicePeaks(peaks, b, len(batch)),
		}
	}

	log.DebugContext(ctx, "batch recognized",
		"segments", len(batch),
		"maxFrames", maxFrames,
	)
	return utterances, nil
}

// decodeTokens greedily argmaxes the logits of one batch row over the first
// validCount token positions.
func (e *Engine) decodeTokens(logits *ort.Tensor[float32], b, validCount int) []string {
	shape := logits.GetShape()
	if len(shape) != 3 {
		return nil
	}
	maxTokens := int(shape[1])
	vocabSize := int(shape[2])
	data := logits.GetData()

	if validCount <= 0 || validCount > maxTokens {
		validCount = maxTokens
	}

	tokens := make([]string, 0, validCount)
	for t := 0; t < validCount; t++ {
		row := data[(b*maxTokens+t)*vocabSize : (b*maxTokens+t+1)*vocabSize]
		best := 0
		for i, v := range row {
			if v > row[best] {
				best = i
			}
		}
		if tok := e.vocab.Token(best); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// slicePeaks copies one batch row of the upsampled CIF peak output.
func slicePeaks(peaks *ort.Tensor[float32], b, batchSize int) []float32 {
	data := peaks.GetData()
	rowLen := len(data) / batchSize
	out := make([]float32, rowLen)
	copy(out, data[b*rowLen:(b+1)*rowLen])
	return out
}

// validTokenCounts reads the token_num output, tolerating either integer
// width the exporter chose.
func validTokenCounts(value ort.Value, batchSize int) ([]int, error) {
	counts := make([]int, batchSize)
	switch t := value.(type) {
	case *ort.Tensor[int32]:
		for i, v := range t.GetData() {
			if i < batchSize {
				counts[i] = int(v)
			}
		}
	case *ort.Tensor[int64]:
		for i, v := range t.GetData() {
			if i < batchSize {
				counts[i] = int(v)
			}
		}
	default:
		return nil, fmt.Errorf("unexpected token_num tensor type %T", value)
	}
	return counts, nil
}

var _ recognize.Recognizer = (*Engine)(nil)
