package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

type ConfigSchema struct {
	Databases struct {
		Master   DBConfig   `yaml:"master"`
		Replicas []DBConfig `yaml:"replicas"`
	} `yaml:"databases"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`
	Relations struct {
		PageSize         int `yaml:"page_size"`
		MaxPageSize      int `yaml:"max_page_size"`
		SearchLimit      int `yaml:"search_limit"`
		SuggestionLimit  int `yaml:"suggestion_limit"`
		CountsTTLSeconds int `yaml:"counts_ttl_seconds"`
		CommandTimeoutMS int `yaml:"command_timeout_ms"`
	} `yaml:"relations"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

var AppConfig *ConfigSchema

func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf := &ConfigSchema{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return err
	}
	conf.applyDefaults()
	AppConfig = conf
	return nil
}

func (c *ConfigSchema) applyDefaults() {
	if c.Relations.PageSize == 0 {
		c.Relations.PageSize = 20
	}
	if c.Relations.MaxPageSize == 0 {
		c.Relations.MaxPageSize = 100
	}
	if c.Relations.SearchLimit == 0 {
		c.Relations.SearchLimit = 50
	}
	if c.Relations.SuggestionLimit == 0 {
		c.Relations.SuggestionLimit = 50
	}
	if c.Relations.CountsTTLSeconds == 0 {
		c.Relations.CountsTTLSeconds = 86400
	}
	if c.Relations.CommandTimeoutMS == 0 {
		c.Relations.CommandTimeoutMS = 5000
	}
}
