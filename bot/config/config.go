// Package config holds the quiz bot configuration on top of the core one.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/m3rciful/quizbot/bot/assets"
	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
)

const defaultLang = "ru"

// QuizConfig describes the quiz itself.
type QuizConfig struct {
	BankPath string `yaml:"bank_path" envconfig:"QUIZ_BANK_PATH"`
	// Questions is the run length; 0 asks every question in the bank.
	Questions int    `yaml:"questions" envconfig:"QUIZ_QUESTIONS"`
	Lang      string `yaml:"lang" envconfig:"QUIZ_LANG"`
	// AnswerKeyboard attaches a reply keyboard with the permitted answers to questions.
	AnswerKeyboard bool `yaml:"answer_keyboard" envconfig:"QUIZ_ANSWER_KEYBOARD"`
}

// HealthConfig enables the probe server when Listen is set.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Config is the complete quiz bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Quiz      QuizConfig          `yaml:"quiz"`
	Resources []assets.Entry      `yaml:"resources" ignored:"true"`
	Health    HealthConfig        `yaml:"health"`

	// Dir is the directory of the config file; relative paths are resolved against it.
	Dir string `yaml:"-" ignored:"true"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file at path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if c.Database.Driver == coredatabase.DriverSQLite {
		c.Database.Path = c.resolve(c.Database.Path)
	}

	q := &c.Quiz
	q.BankPath = strings.TrimSpace(q.BankPath)
	if q.BankPath == "" {
		return fmt.Errorf("quiz.bank_path is required")
	}
	q.BankPath = c.resolve(q.BankPath)
	if q.Questions < 0 {
		return fmt.Errorf("quiz.questions must be >= 0")
	}
	q.Lang = strings.ToLower(strings.TrimSpace(q.Lang))
	if q.Lang == "" {
		q.Lang = defaultLang
	}

	c.Health.Listen = strings.TrimSpace(c.Health.Listen)
	return nil
}

// RunLength returns the number of questions per run for a bank of bankSize questions.
func (c *Config) RunLength(bankSize int) (int, error) {
	n := c.Quiz.Questions
	if n == 0 {
		n = bankSize
	}
	if n > bankSize {
		return 0, fmt.Errorf("quiz.questions is %d but the bank has only %d questions", n, bankSize)
	}
	if n == 0 {
		return 0, fmt.Errorf("question bank is empty")
	}
	return n, nil
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
