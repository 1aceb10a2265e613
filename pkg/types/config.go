package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"30"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Connection pool, zero keeps the pgx default
	DBMaxConns            int32 `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMaxConnIdleMinutes  uint  `envconfig:"DB_MAX_CONN_IDLE_MINUTES" default:"5"`
	DBMaxConnLifetimeMins uint  `envconfig:"DB_MAX_CONN_LIFETIME_MINUTES" default:"30"`

	// Asset storage
	AssetBucket  string `envconfig:"ASSET_BUCKET"`
	AssetBaseURL string `envconfig:"ASSET_BASE_URL"`
	ImageWidth   int    `envconfig:"IMAGE_WIDTH" default:"800"`

	// Uploads
	MaxUploadMB         int64 `envconfig:"MAX_UPLOAD_MB" default:"50"`
	UploadRatePerMinute int   `envconfig:"UPLOAD_RATE_PER_MINUTE" default:"10"`

	// Map view, default center is Pakistan
	MapCenterLat   float64 `envconfig:"MAP_CENTER_LAT" default:"30.3753"`
	MapCenterLng   float64 `envconfig:"MAP_CENTER_LNG" default:"69.3451"`
	MapDefaultZoom float64 `envconfig:"MAP_DEFAULT_ZOOM" default:"5"`

	GalleryPageSize uint64 `envconfig:"GALLERY_PAGE_SIZE" default:"24"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
