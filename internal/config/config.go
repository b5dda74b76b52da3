package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file searched for in the config directory.
const FileName = "awacs.cfg.json"

// AWACSConfig tunes the controller.
type AWACSConfig struct {
	TTL                time.Duration
	TickHz             float64
	GroupRangeNM       float64
	GroupAltFt         float64
	MergeRangeNM       float64
	MergeCooldownTicks int
	MissileAlertNM     float64
	DeclareRadiusNM    float64
	WeaponsFree        bool
	LogCapacity        int
	VelocitySmoothing  float64
	HomePlateSpeedKts  float64
	HomePlateAltM      float64
	CapRadiusNM        float64
	CapAlt             string
	BullseyePreference []string
}

// TacviewConfig holds the realtime telemetry server settings.
type TacviewConfig struct {
	Host        string
	Port        int
	Password    string
	ClientName  string
	AutoConnect bool
	DialTimeout time.Duration
}

// Address returns host:port.
func (c TacviewConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// SQLiteConfig holds SQLite journal settings. An empty Path is in-memory.
type SQLiteConfig struct {
	Path string
}

// StorageConfig selects the journal backend.
type StorageConfig struct {
	Type     string
	SQLite   SQLiteConfig
	Postgres DBConfig
}

// InfluxConfig holds time-series output settings.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// GraylogConfig holds the optional GELF sink.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Listen         string
	AllowedOrigins []string
}

// MonitorConfig holds the status sampler settings.
type MonitorConfig struct {
	Interval   time.Duration
	StatusFile string
}

// UplinkConfig holds the outbound alert forwarder settings.
type UplinkConfig struct {
	URL    string
	Secret string
}

// SetDefaults registers the default for every key and enables AWACS_*
// environment overrides.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./awacslogs")

	viper.SetDefault("tacview.host", "127.0.0.1")
	viper.SetDefault("tacview.port", 42674)
	viper.SetDefault("tacview.password", "0")
	viper.SetDefault("tacview.clientName", "OpenRadar")
	viper.SetDefault("tacview.autoConnect", false)
	viper.SetDefault("tacview.dialTimeout", "10s")

	viper.SetDefault("http.listen", "127.0.0.1:8088")
	viper.SetDefault("http.allowedOrigins", []string{"*"})

	viper.SetDefault("awacs.ttl", "10s")
	viper.SetDefault("awacs.tickHz", 1.0)
	viper.SetDefault("awacs.groupRangeNm", 5.0)
	viper.SetDefault("awacs.groupAltFt", 2000.0)
	viper.SetDefault("awacs.mergeRangeNm", 3.0)
	viper.SetDefault("awacs.mergeCooldownTicks", 10)
	viper.SetDefault("awacs.missileAlertNm", 30.0)
	viper.SetDefault("awacs.declareRadiusNm", 6.0)
	viper.SetDefault("awacs.weaponsFree", false)
	viper.SetDefault("awacs.logCapacity", 800)
	viper.SetDefault("awacs.velocitySmoothing", 0.5)
	viper.SetDefault("awacs.homePlateSpeedKts", 60.0)
	viper.SetDefault("awacs.homePlateAltM", 300.0)
	viper.SetDefault("awacs.capRadiusNm", 10.0)
	viper.SetDefault("awacs.capAlt", "20-40")
	viper.SetDefault("awacs.bullseyePreference", []string{"Allies", "Blue", "ROK", "NATO", "Training", "USA", "U.S."})

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "awacs")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "awacs-metrics")
	viper.SetDefault("influx.bucket", "awacs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "awacs")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.statusFile", "")

	viper.SetDefault("uplink.url", "")
	viper.SetDefault("uplink.secret", "")

	viper.SetEnvPrefix("AWACS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetAWACSConfig returns the controller settings.
func GetAWACSConfig() AWACSConfig {
	return AWACSConfig{
		TTL:                viper.GetDuration("awacs.ttl"),
		TickHz:             viper.GetFloat64("awacs.tickHz"),
		GroupRangeNM:       viper.GetFloat64("awacs.groupRangeNm"),
		GroupAltFt:         viper.GetFloat64("awacs.groupAltFt"),
		MergeRangeNM:       viper.GetFloat64("awacs.mergeRangeNm"),
		MergeCooldownTicks: viper.GetInt("awacs.mergeCooldownTicks"),
		MissileAlertNM:     viper.GetFloat64("awacs.missileAlertNm"),
		DeclareRadiusNM:    viper.GetFloat64("awacs.declareRadiusNm"),
		WeaponsFree:        viper.GetBool("awacs.weaponsFree"),
		LogCapacity:        viper.GetInt("awacs.logCapacity"),
		VelocitySmoothing:  viper.GetFloat64("awacs.velocitySmoothing"),
		HomePlateSpeedKts:  viper.GetFloat64("awacs.homePlateSpeedKts"),
		HomePlateAltM:      viper.GetFloat64("awacs.homePlateAltM"),
		CapRadiusNM:        viper.GetFloat64("awacs.capRadiusNm"),
		CapAlt:             viper.GetString("awacs.capAlt"),
		BullseyePreference: viper.GetStringSlice("awacs.bullseyePreference"),
	}
}

// GetTacviewConfig returns the telemetry server settings.
func GetTacviewConfig() TacviewConfig {
	return TacviewConfig{
		Host:        viper.GetString("tacview.host"),
		Port:        viper.GetInt("tacview.port"),
		Password:    viper.GetString("tacview.password"),
		ClientName:  viper.GetString("tacview.clientName"),
		AutoConnect: viper.GetBool("tacview.autoConnect"),
		DialTimeout: viper.GetDuration("tacview.dialTimeout"),
	}
}

// GetStorageConfig returns the journal backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:   viper.GetString("storage.type"),
		SQLite: SQLiteConfig{Path: viper.GetString("storage.sqlite.path")},
		Postgres: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetInfluxConfig returns the time-series output settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetHTTPConfig returns the API server settings.
func GetHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Listen:         viper.GetString("http.listen"),
		AllowedOrigins: viper.GetStringSlice("http.allowedOrigins"),
	}
}

// GetMonitorConfig returns the status sampler settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
	}
}

// GetUplinkConfig returns the alert forwarder settings.
func GetUplinkConfig() UplinkConfig {
	return UplinkConfig{
		URL:    viper.GetString("uplink.url"),
		Secret: viper.GetString("uplink.secret"),
	}
}
