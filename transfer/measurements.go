package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/types"
)

const (
	FieldFrontImage = "front_image"
	FieldSideImage  = "side_image"
	FieldUserID     = "user_id"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// MeasurementClient submits photo pairs to the analysis service.
type MeasurementClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMeasurementClient returns a client for baseURL. A nil httpClient uses the shared one from tool.
func NewMeasurementClient(baseURL string, httpClient *http.Client) *MeasurementClient {
	return &MeasurementClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *MeasurementClient) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return tool.GetHttpClient()
}

// Analyze sends one multipart POST carrying both images and the user id.
// Every failure is returned as *AnalysisError.
func (c *MeasurementClient) Analyze(ctx context.Context, request *types.MeasurementRequest) (*types.MeasurementUploadResponse, error) {
	if request == nil {
		return nil, &AnalysisError{Kind: types.FailureMissingInput, Err: fmt.Errorf("request must not be nil")}
	}

	url, err := tool.BuildMeasurementUploadURL(c.baseURL)
	if err != nil {
		return nil, &AnalysisError{Kind: types.FailureTransport, Err: fmt.Errorf("failed to build upload URL: %w", err)}
	}

	body, contentType, err := encodeMeasurementRequest(request)
	if err != nil {
		return nil, &AnalysisError{Kind: types.FailureTransport, Err: fmt.Errorf("failed to encode multipart body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, &AnalysisError{Kind: types.FailureTransport, Err: fmt.Errorf("failed to create upload request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, &AnalysisError{Kind: types.FailureTransport, Err: fmt.Errorf("failed to send upload request: %w", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail := ""
		if readErr == nil {
			detail = parseErrorDetail(raw)
		}
		tool.DefaultLogger.Debugf("Measurement upload rejected: %s body=%s", resp.Status, string(raw))
		return nil, &AnalysisError{Kind: types.FailureServiceRejected, StatusCode: resp.StatusCode, Detail: detail}
	}
	if readErr != nil {
		return nil, &AnalysisError{Kind: types.FailureTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", readErr)}
	}

	result, err := parseMeasurementResponse(raw)
	if err != nil {
		return nil, &AnalysisError{Kind: types.FailureMalformedResponse, StatusCode: resp.StatusCode, Err: err}
	}

	tool.DefaultLogger.Infof("Measurement upload accepted by %s (upload_id=%s, fields=%d)", url, result.UploadID, len(result.Measurements))
	return result, nil
}

func encodeMeasurementRequest(request *types.MeasurementRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writeImagePart(writer, FieldFrontImage, request.Front); err != nil {
		return nil, "", err
	}
	if err := writeImagePart(writer, FieldSideImage, request.Side); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField(FieldUserID, request.UserID); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeImagePart writes a file part carrying the image's own media type; CreateFormFile would
// label every part application/octet-stream.
func writeImagePart(writer *multipart.Writer, field string, part types.ImagePart) error {
	fileName := part.FileName
	if fileName == "" {
		fileName = field
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(fileName)))
	contentType := part.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	w, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = w.Write(part.Data)
	return err
}

// parseErrorDetail extracts a string "detail" field; anything else yields "".
func parseErrorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return ""
	}
	detail, ok := payload["detail"].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(detail)
}

func parseMeasurementResponse(body []byte) (*types.MeasurementUploadResponse, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("response body is empty")
	}
	var response types.MeasurementUploadResponse
	if err := sonic.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if response.Measurements == nil {
		return nil, fmt.Errorf("response missing measurements")
	}
	if len(response.Measurements) == 0 {
		return nil, fmt.Errorf("response measurements are empty")
	}
	return &response, nil
}
