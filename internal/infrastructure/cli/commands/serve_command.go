package commands

import (
	"fmt"
	"net"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/doeshing/fieldx/internal/app"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/infrastructure/server"
	"github.com/doeshing/fieldx/internal/infrastructure/session"
)

// serveEnvPrefix namespaces environment overrides (FIELDX_HOST, FIELDX_PORT).
const serveEnvPrefix = "FIELDX"

// NewServeCommand creates the serve command that exposes sessions over HTTP
func NewServeCommand(container *app.Container) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve extraction sessions over a REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := container.Config
			setupServeDefaults(v, cfg)

			if !container.Options.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			store := session.NewStore(cfg.Server.MaxSessions, cfg.GetSessionTTL(), container.Logger)
			srv, err := server.New(server.Deps{
				Config:    cfg,
				Sessions:  store,
				Extractor: container.ExtractionService,
				Documents: container.Documents,
				Logger:    container.Logger,
			})
			if err != nil {
				return err
			}

			addr, err := serveAddress(v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "fieldx listening on http://%s\n", addr)
			return srv.Run(cmd.Context(), addr)
		},
	}

	defineServeFlags(cmd.Flags())
	bindServeFlags(v, cmd.Flags())
	return cmd
}

// defineServeFlags sets up the listen address flags; zero values defer to config
func defineServeFlags(flags *pflag.FlagSet) {
	flags.String("host", "", "Listen host (default from server.host)")
	flags.Int("port", 0, "Listen port (default from server.port)")
}

// bindServeFlags binds flags and FIELDX_* environment variables to v
func bindServeFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvPrefix(serveEnvPrefix)
	v.AutomaticEnv()
	_ = v.BindPFlag("host", flags.Lookup("host"))
	_ = v.BindPFlag("port", flags.Lookup("port"))
}

// setupServeDefaults seeds viper with the configured server settings
func setupServeDefaults(v *viper.Viper, cfg domain.Config) {
	host := cfg.Server.Host
	if host == "" {
		host = domain.DefaultServerHost
	}
	port := cfg.Server.Port
	if port == 0 {
		port = domain.DefaultServerPort
	}
	v.SetDefault("host", host)
	v.SetDefault("port", port)
}

// serveAddress resolves host:port with flag > env > config precedence
func serveAddress(v *viper.Viper) (string, error) {
	host := v.GetString("host")
	port := v.GetInt("port")
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
