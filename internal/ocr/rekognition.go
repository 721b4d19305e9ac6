package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type detectTextAPI interface {
	DetectText(ctx context.Context, in *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// RekognitionReader recognizes text with AWS Rekognition DetectText. Lines
// are joined with ", " in reading order.
type RekognitionReader struct {
	api           detectTextAPI
	minConfidence float32
	logger        *slog.Logger
}

// NewRekognitionReader loads the default AWS credential chain for cfg.Region.
func NewRekognitionReader(ctx context.Context, cfg Config, logger *slog.Logger) (*RekognitionReader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrUnavailable, err)
	}
	return newRekognitionReader(rekognition.NewFromConfig(awsCfg), cfg.MinConfidence, logger), nil
}

func newRekognitionReader(api detectTextAPI, minConfidence float32, logger *slog.Logger) *RekognitionReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &RekognitionReader{api: api, minConfidence: minConfidence, logger: logger}
}

// ReadPlate implements Reader.
func (r *RekognitionReader) ReadPlate(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read ocr input %s: %w", imagePath, err)
	}

	out, err := r.api.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: data},
	})
	if err != nil {
		return "", fmt.Errorf("%w: rekognition: %v", ErrUnavailable, err)
	}

	var lines []string
	for _, d := range out.TextDetections {
		if d.Type != types.TextTypesLine || d.DetectedText == nil {
			continue
		}
		if d.Confidence != nil && *d.Confidence < r.minConfidence {
			continue
		}
		if txt := strings.TrimSpace(*d.DetectedText); txt != "" {
			lines = append(lines, txt)
		}
	}
	r.logger.Debug("rekognition response",
		"image", imagePath,
		"detections", len(out.TextDetections),
		"lines", len(lines))
	if len(lines) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.Join(lines, ", "), nil
}
