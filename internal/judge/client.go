package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docaudit/internal/platform/config"
	"docaudit/internal/verdict"
	dErrors "docaudit/pkg/domain-errors"
)

const systemPrompt = "你是一名公文审核专家。你将收到一份公文内容和一组审核规则，" +
	"请逐条对照规则审核公文，并只输出 JSON，格式为：" +
	`{"status":"PASS|FAIL|WARNING","summary":"总体结论","issues":[` +
	`{"category":"text_editing|workflow_logic|result_determination|special_rules",` +
	`"rule":"对应规则","description":"问题描述","severity":"high|medium|low","location":"问题位置"}]}`

// Client is the HTTP judgment client. It owns the defensive behavior the
// orchestrator relies on: a hard per-call timeout, content truncation before
// transmission, and coercion of whatever status the upstream model returns.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	maxContent int
	httpClient *http.Client
}

var _ Judge = (*Client)(nil)

// NewClient builds a judgment client from configuration. The timeout applies
// per call; a timed-out call reports CodeJudgmentTimeout so the synthesized
// verdict can say so.
func NewClient(cfg config.Judge) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxContent := cfg.MaxContentBytes
	if maxContent <= 0 {
		maxContent = 100_000
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxContent: maxContent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// wireVerdict mirrors the JSON the model is instructed to emit.
type wireVerdict struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
	Issues  []struct {
		Category    string `json:"category"`
		Rule        string `json:"rule"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
		Location    string `json:"location"`
	} `json:"issues"`
}

func (c *Client) Judge(ctx context.Context, content string, rules []string) (*verdict.Result, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, dErrors.New(dErrors.CodeJudgmentFailed, "判定服务未配置（缺少 endpoint/model/api key）")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: c.buildPrompt(content, rules)},
		},
	})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeJudgmentFailed, "构造请求失败", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeJudgmentFailed, "构造请求失败", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, dErrors.Wrap(dErrors.CodeJudgmentTimeout, "判定服务调用超时", err)
		}
		return nil, dErrors.Wrap(dErrors.CodeJudgmentFailed, "判定服务调用失败", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, dErrors.Newf(dErrors.CodeJudgmentFailed, "判定服务返回 %s: %s",
			resp.Status, strings.TrimSpace(string(detail)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeJudgmentFailed, "判定服务响应不是有效 JSON", err)
	}
	if len(chat.Choices) == 0 {
		return nil, dErrors.New(dErrors.CodeJudgmentFailed, "判定服务响应缺少内容")
	}

	return parseVerdict(chat.Choices[0].Message.Content)
}

// buildPrompt assembles the user message: truncated content plus the rule
// list numbered in registry order.
func (c *Client) buildPrompt(content string, rules []string) string {
	if len(content) > c.maxContent {
		content = content[:c.maxContent] + "\n……（内容过长，已截断）"
	}

	var sb strings.Builder
	sb.WriteString("审核规则：\n")
	for i, rule := range rules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
	}
	sb.WriteString("\n公文内容：\n")
	sb.WriteString(content)
	return sb.String()
}

func parseVerdict(raw string) (*verdict.Result, error) {
	raw = stripCodeFence(raw)

	var wire wireVerdict
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeJudgmentFailed, "判定结果不是有效 JSON", err)
	}

	result := &verdict.Result{
		Status:      verdict.Coerce(wire.Status),
		Summary:     wire.Summary,
		Issues:      make([]verdict.Issue, 0, len(wire.Issues)),
		ProcessedAt: time.Now(),
	}
	for _, issue := range wire.Issues {
		result.Issues = append(result.Issues, verdict.Issue{
			Category:    issue.Category,
			Rule:        issue.Rule,
			Description: issue.Description,
			Severity:    verdict.CoerceSeverity(issue.Severity),
			Location:    issue.Location,
		})
	}
	return result, nil
}

// stripCodeFence unwraps ```json fenced blocks; chat models emit them even
// when told not to.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

func isClientTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
