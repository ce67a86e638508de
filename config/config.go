package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging  LoggingConfig  `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
	Chat     ChatConfig     `yaml:"chat"`
	Insights InsightsConfig `yaml:"insights"`
	Purchase PurchaseConfig `yaml:"purchase"`
	Settings SettingsConfig `yaml:"settings"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// APIConfig 는 백엔드 REST API 접속 정보다.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// AccessToken 은 로컬 API 요청에 Bearer 토큰이 없을 때 사용하는 기본 토큰이다.
	// 보통 BANKR_ACCESS_TOKEN 환경변수로 주입한다.
	AccessToken string `yaml:"-"`
}

// ChatConfig 는 채팅 세션 컨트롤러 설정이다.
type ChatConfig struct {
	// FreeMessageLimit 는 무료 사용자가 보낼 수 있는 메시지 수다.
	// 클라이언트 사전 검사에만 쓰이며, 최종 판단은 서버 응답을 따른다.
	FreeMessageLimit int `yaml:"free_message_limit"`

	// SendTimeout 은 메시지 전송 한 건의 최대 대기 시간이다.
	// 전송은 호출자 취소와 무관하게 끝까지 수행된다.
	SendTimeout time.Duration `yaml:"send_timeout"`
}

type InsightsConfig struct {
	MonthlyBudget float64 `yaml:"monthly_budget"`
	StoriesLimit  int     `yaml:"stories_limit"`
	TipsLimit     int     `yaml:"tips_limit"`
}

// PurchaseConfig 는 플랫폼별 결제 경로 선택에 사용된다.
type PurchaseConfig struct {
	Platform         string `yaml:"platform"`
	StripePriceID    string `yaml:"stripe_price_id"`
	// PaywallPlacement 는 인앱 결제 SDK 에서 보여줄 paywall 위치 ID 다.
	PaywallPlacement string `yaml:"paywall_placement"`
}

type SettingsConfig struct {
	Path string `yaml:"path"`
}

type CacheConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	applyEnv(&c)
	config = &c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

// Parse 는 config.yaml 내용을 읽어 기본값을 채운 AppConfig 를 반환한다.
func Parse(data []byte) (AppConfig, error) {
	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&c)
	return c, nil
}

func applyDefaults(c *AppConfig) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Chat.FreeMessageLimit <= 0 {
		c.Chat.FreeMessageLimit = 2
	}
	if c.Chat.SendTimeout <= 0 {
		c.Chat.SendTimeout = 2 * time.Minute
	}
	if c.Insights.MonthlyBudget <= 0 {
		c.Insights.MonthlyBudget = 2500
	}
	if c.Insights.StoriesLimit <= 0 {
		c.Insights.StoriesLimit = 20
	}
	if c.Insights.TipsLimit <= 0 {
		c.Insights.TipsLimit = 20
	}
	if c.Purchase.Platform == "" {
		c.Purchase.Platform = "web"
	}
	if c.Purchase.PaywallPlacement == "" {
		c.Purchase.PaywallPlacement = "default"
	}
	if c.Settings.Path == "" {
		c.Settings.Path = "preferences.yaml"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "bankr-cache.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8787"
	}
}

// applyEnv 는 배포 환경마다 달라지는 값을 환경변수로 덮어쓴다.
func applyEnv(c *AppConfig) {
	if v := os.Getenv("BANKR_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("BANKR_ACCESS_TOKEN"); v != "" {
		c.API.AccessToken = v
	}
	if v := os.Getenv("BANKR_PLATFORM"); v != "" {
		c.Purchase.Platform = strings.ToLower(v)
	}
	if v := os.Getenv("BANKR_STRIPE_PRICE_ID"); v != "" {
		c.Purchase.StripePriceID = v
	}
	if v := os.Getenv("BANKR_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
