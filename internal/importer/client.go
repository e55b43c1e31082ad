package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/hitoshi/holical/internal/model"
)

// Client は祝日データAPI（Nager.Date互換）のクライアント。
// 年・国単位のエンドポイントから祝日セットを取得し、州スコープはレスポンスの
// subdivision情報でフィルタする。
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
// 本番ではNewSafeHTTPClientで生成したクライアントを渡すことを想定している。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// NewSafeHTTPClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlのDialer検証により、プライベートIP・ループバック・リンクローカル・
// メタデータIPへのリクエストがDNS解決後も含めてブロックされる。
func NewSafeHTTPClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// apiHoliday はプロバイダーAPIのレスポンス1件分。
type apiHoliday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties"`
}

// HolidaysFor は指定された国・州・年の祝日セットを取得する。
// プロバイダーは国単位のレスポンスを返すため、国全体スコープ（state=""）では
// global=trueのエントリを、州スコープではglobalまたは該当subdivisionの
// エントリを採用する。
func (c *Client) HolidaysFor(ctx context.Context, country, state string, year int) ([]ProviderHoliday, error) {
	reqURL := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Holical/1.0 Holiday Calendar")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("祝日プロバイダーAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("country", country),
			slog.Int("year", year),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("祝日プロバイダーAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("country", country),
			slog.Int("year", year),
		)
		return nil, fmt.Errorf("祝日プロバイダーAPIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var entries []apiHoliday
	if err := json.Unmarshal(body, &entries); err != nil {
		c.logger.Error("祝日プロバイダーAPIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	subdivision := ""
	if state != "" {
		subdivision = country + "-" + state
	}

	var holidays []ProviderHoliday
	for _, entry := range entries {
		if !c.matchesScope(entry, subdivision) {
			continue
		}

		date, err := time.Parse(model.DateFormat, entry.Date)
		if err != nil {
			return nil, fmt.Errorf("祝日の日付の形式が不正です: %q: %w", entry.Date, err)
		}

		name := entry.Name
		if name == "" {
			name = entry.LocalName
		}
		if name == "" {
			return nil, fmt.Errorf("祝日の名前が空です: %s", entry.Date)
		}

		holidays = append(holidays, ProviderHoliday{Date: date, Name: name})
	}

	return holidays, nil
}

// matchesScope はエントリが要求されたスコープに含まれるかを判定する。
// subdivisionが空の場合は国全体の祝日のみ、指定された場合は国全体の祝日と
// 該当subdivisionの祝日の両方が含まれる。
func (c *Client) matchesScope(entry apiHoliday, subdivision string) bool {
	if subdivision == "" {
		return entry.Global
	}
	if entry.Global {
		return true
	}
	for _, county := range entry.Counties {
		if county == subdivision {
			return true
		}
	}
	return false
}

// compile-time interface check
var _ Provider = (*Client)(nil)
