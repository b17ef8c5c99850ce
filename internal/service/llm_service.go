package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"freight-insure/internal/intake"
	"freight-insure/internal/storage"
	"freight-insure/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
)

var errTokenExpired = errors.New("gigachat access token expired")

// LLMService recognizes documents through GigaChat. Images go through the
// vision endpoint; PDFs are converted to text with go-fitz and sent to the
// chat model.
type LLMService struct {
	client     *gigago.Client
	model      *gigago.GenerativeModel
	modelName  string
	config     *config.GigaChatConfig
	store      storage.Store
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	oauthURL   string

	mu          sync.Mutex
	accessToken string
}

const systemInstruction = `你是中国货运车辆投保业务的证件识别助手。你的任务是从身份证、营业执照、机动车行驶证和车辆合格证中准确提取字段。

规则：
1. 只返回一个 JSON 对象，不要输出 markdown、解释或其他文字。
2. 字段值必须与证件上的文字完全一致，不要猜测；无法识别的字段返回空字符串。
3. 车牌号码、车架号(VIN)使用大写字母。`

// kindFields lists the JSON fields requested per document kind.
var kindFields = map[intake.DocumentKind]string{
	intake.KindIDCard:      `{"name": "姓名", "number": "公民身份号码", "address": "住址"}`,
	intake.KindBusiness:    `{"name": "企业名称", "number": "统一社会信用代码", "address": "住所"}`,
	intake.KindDriving:     `{"plate": "号牌号码", "type": "车辆类型", "engine": "发动机号码", "frame": "车辆识别代号"}`,
	intake.KindCertificate: `{"engine": "发动机号", "frame": "车辆识别代号/车架号"}`,
}

var kindNames = map[intake.DocumentKind]string{
	intake.KindIDCard:      "居民身份证",
	intake.KindBusiness:    "营业执照",
	intake.KindDriving:     "机动车行驶证",
	intake.KindCertificate: "车辆合格证",
}

func NewLLMService(cfg *config.GigaChatConfig, store storage.Store, logger *zap.Logger) (*LLMService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "GigaChat"
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = systemInstruction
	model.Temperature = 0.1

	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &LLMService{
		client:     client,
		model:      model,
		modelName:  modelName,
		config:     cfg,
		store:      store,
		logger:     logger,
		httpClient: httpClient,
		baseURL:    gigaChatBaseURL,
		oauthURL:   gigaChatOAuthURL,
	}, nil
}

// Recognize implements Recognizer.
func (s *LLMService) Recognize(ctx context.Context, kind intake.DocumentKind, file intake.UploadedFile) (intake.Extraction, error) {
	fields, ok := kindFields[kind]
	if !ok {
		return intake.Extraction{}, fmt.Errorf("%w: %s", intake.ErrUnknownKind, kind)
	}

	rc, err := s.store.Open(ctx, file.Key)
	if err != nil {
		return intake.Extraction{}, fmt.Errorf("failed to open stored file: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return intake.Extraction{}, fmt.Errorf("failed to read stored file: %w", err)
	}

	var content string
	if file.ContentType == "application/pdf" {
		text, err := s.extractTextFromPDF(data)
		if err != nil {
			return intake.Extraction{}, err
		}
		content, err = s.generate(ctx, buildPrompt(kind, fields, text))
		if err != nil {
			return intake.Extraction{}, err
		}
	} else {
		content, err = s.recognizeImage(ctx, kind, fields, file, data)
		if err != nil {
			return intake.Extraction{}, err
		}
	}

	res, err := parseExtraction(content)
	if err != nil {
		return intake.Extraction{}, err
	}
	return res, nil
}

func buildPrompt(kind intake.DocumentKind, fields, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请识别这张%s，并按以下格式返回 JSON：\n%s\n", kindNames[kind], fields)
	if text != "" {
		b.WriteString("\n证件文字内容：\n")
		b.WriteString(text)
	}
	return b.String()
}

func (s *LLMService) generate(ctx context.Context, prompt string) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// extractTextFromPDF extracts text from every page using go-fitz.
func (s *LLMService) extractTextFromPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	text := strings.TrimSpace(textBuilder.String())
	if text == "" {
		return "", fmt.Errorf("no text found in PDF")
	}

	s.logger.Debug("PDF text extracted using go-fitz",
		zap.Int("pages", doc.NumPage()),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

// parseExtraction reads the first JSON object in an LLM answer, which may
// be wrapped in markdown.
func parseExtraction(content string) (intake.Extraction, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return intake.Extraction{}, fmt.Errorf("invalid response format: %s", content)
	}

	var res intake.Extraction
	if err := json.Unmarshal([]byte(content[start:end+1]), &res); err != nil {
		return intake.Extraction{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	// ids come from the upload record
	res.ID = 0
	return res, nil
}

func (s *LLMService) recognizeImage(ctx context.Context, kind intake.DocumentKind, fields string, file intake.UploadedFile, data []byte) (string, error) {
	fileID, err := s.uploadFile(ctx, data, file)
	if errors.Is(err, errTokenExpired) {
		s.invalidateToken()
		fileID, err = s.uploadFile(ctx, data, file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return s.visionCompletion(ctx, fileID, buildPrompt(kind, fields, ""))
}

func (s *LLMService) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken != "" {
		return s.accessToken, nil
	}
	token, err := s.fetchAccessToken(ctx)
	if err != nil {
		return "", err
	}
	s.accessToken = token
	return token, nil
}

func (s *LLMService) invalidateToken() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

// fetchAccessToken obtains a token from the GigaChat OAuth endpoint. The
// API key is expected to be Base64-encoded already.
func (s *LLMService) fetchAccessToken(ctx context.Context) (string, error) {
	rqUID := uuid.New().String()

	formData := url.Values{}
	formData.Set("scope", s.config.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	req.Header.Set("Authorization", "Basic "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		s.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(bodyBytes)),
			zap.String("rq_uid", rqUID),
		)
		return "", fmt.Errorf("OAuth failed with status %d", resp.StatusCode)
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	s.logger.Info("GigaChat access token obtained")
	return oauthResp.AccessToken, nil
}

// uploadFile sends the document to the GigaChat Files API and returns the
// file id used as a vision attachment.
func (s *LLMService) uploadFile(ctx context.Context, data []byte, file intake.UploadedFile) (string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {contentType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, file.Name)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		return "", errTokenExpired
	case http.StatusRequestEntityTooLarge:
		return "", fmt.Errorf("file too large (413)")
	default:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	s.logger.Debug("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

// visionCompletion asks the chat model about an attached file.
func (s *LLMService) visionCompletion(ctx context.Context, fileID, prompt string) (string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	// attachments are a list of file id lists: [["file_id"]]
	requestBody := map[string]interface{}{
		"model": s.modelName,
		"messages": []map[string]interface{}{
			{"role": "system", "content": systemInstruction},
			{
				"role":        "user",
				"content":     prompt,
				"attachments": [][]string{{fileID}},
			},
		},
		"temperature": 0.1,
		"stream":      false,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			s.invalidateToken()
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}

	return strings.TrimSpace(visionResp.Choices[0].Message.Content), nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
