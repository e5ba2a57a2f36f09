package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-engine/pkg/jwt"
)

// operatorRoles roles que aceptan las rutas /api/fiscal.
var operatorRoles = []string{"admin", "vendedor", "auditor"}

// TokenResult salida de token.
type TokenResult struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenCommand emite un token de operador firmado con JWT_SECRET.
// El login de usuarios vive fuera del motor; esto cubre operadores y pruebas.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		userID    string
		companyID string
		role      string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Emitir un token JWT de operador",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(operatorRoles, role) {
				return fmt.Errorf("rol inválido %q: debe ser uno de %v", role, operatorRoles)
			}
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return errors.New("JWT_SECRET no configurado")
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.JWT.Expiration) * time.Minute
			}
			if companyID == "" {
				companyID = cfg.Fiscal.EmitterNIF
			}

			id := jwt.Identity{UserID: userID, CompanyID: companyID, Role: role}
			tok, err := jwt.Generate(cfg.JWT.Secret, id, cfg.JWT.Issuer, ttl)
			if err != nil {
				return err
			}
			res := TokenResult{Token: tok, UserID: userID, Role: role, ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second)}
			return newFormatter(rootOpts, cmd.OutOrStdout()).Emit(res, func(w io.Writer) {
				printf(w, "%s\n", res.Token)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "operador", "user_id del token")
	cmd.Flags().StringVar(&companyID, "company", "", "company_id (por defecto el NIF emisor)")
	cmd.Flags().StringVar(&role, "role", "auditor", "rol: admin|vendedor|auditor")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "vigencia (por defecto JWT_EXPIRATION_MINUTES)")
	return cmd
}
