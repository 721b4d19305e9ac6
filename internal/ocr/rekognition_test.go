package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetectText struct {
	out   *rekognition.DetectTextOutput
	err   error
	input *rekognition.DetectTextInput
}

func (f *fakeDetectText) DetectText(_ context.Context, in *rekognition.DetectTextInput, _ ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error) {
	f.input = in
	return f.out, f.err
}

func detection(kind types.TextTypes, text string, confidence float32) types.TextDetection {
	return types.TextDetection{Type: kind, DetectedText: aws.String(text), Confidence: aws.Float32(confidence)}
}

func TestRekognitionJoinsLines(t *testing.T) {
	path, data := writeImage(t)
	api := &fakeDetectText{out: &rekognition.DetectTextOutput{TextDetections: []types.TextDetection{
		detection(types.TextTypesLine, "ABC 123", 99),
		detection(types.TextTypesWord, "ABC", 99),
		detection(types.TextTypesWord, "123", 99),
		detection(types.TextTypesLine, "BOGOTA D.C.", 97),
		detection(types.TextTypesLine, "smudge", 20),
	}}}

	text, err := newRekognitionReader(api, 50, nil).ReadPlate(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "ABC 123, BOGOTA D.C.", text)
	assert.Equal(t, data, api.input.Image.Bytes)
}

func TestRekognitionNoLines(t *testing.T) {
	path, _ := writeImage(t)
	api := &fakeDetectText{out: &rekognition.DetectTextOutput{}}
	_, err := newRekognitionReader(api, 0, nil).ReadPlate(context.Background(), path)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestRekognitionAPIError(t *testing.T) {
	path, _ := writeImage(t)
	api := &fakeDetectText{err: errors.New("throttled")}
	_, err := newRekognitionReader(api, 0, nil).ReadPlate(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "throttled")
}
