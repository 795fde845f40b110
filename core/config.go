package core

type Config struct {
	// JWT configuration
	JWTSecret            string `env:"JWT_SECRET,notEmpty"`
	AccessTokenDuration  int    `env:"ACCESS_TOKEN_DURATION" envDefault:"86400"`    // Access token lifetime in seconds (24h)
	RefreshTokenDuration int    `env:"REFRESH_TOKEN_DURATION" envDefault:"2592000"` // Refresh token lifetime in seconds (30d)

	// BcryptCost is the work factor for password hashing. Tune against
	// target request rates; 10 keeps a single verification well under
	// 100ms on current hardware.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Production controls the Secure attribute on session cookies.
	Production bool `env:"PRODUCTION" envDefault:"false"`
}
