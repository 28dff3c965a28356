package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
)

const usage = `usage: authctl <command> [args]

commands:
  claims [-limit n]   list unresolved security claims, newest first
  resolve <id>        mark a security claim resolved
  unresolve <id>      reopen a security claim
  unlock <email>      lift a lockout and clear its failed-attempt counter
  unlock-all          lift every active lockout and clear all failed-attempt counters
`

var errUsage = errors.New("invalid usage")

type claimStore interface {
	ListUnresolved(ctx context.Context, limit int) ([]*models.SecurityClaim, error)
	SetResolved(ctx context.Context, id string, resolved bool) (*models.SecurityClaim, error)
}

type lockStore interface {
	Unlock(ctx context.Context, email string) error
	UnlockAll(ctx context.Context) (int64, error)
}

type attemptResetter interface {
	Reset(ctx context.Context, email string) error
	ResetAll(ctx context.Context) (int64, error)
}

// cli executes one operator command against the stores
type cli struct {
	claims   claimStore
	locks    lockStore
	attempts attemptResetter
	out      io.Writer
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "claims":
		return c.listClaims(ctx, rest)
	case "resolve", "unresolve":
		if len(rest) != 1 {
			return errUsage
		}
		return c.setResolved(ctx, rest[0], cmd == "resolve")
	case "unlock":
		if len(rest) != 1 {
			return errUsage
		}
		return c.unlock(ctx, rest[0])
	case "unlock-all":
		return c.unlockAll(ctx)
	default:
		return errUsage
	}
}

func (c *cli) listClaims(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("claims", flag.ContinueOnError)
	fs.SetOutput(c.out)
	limit := fs.Int("limit", 50, "maximum number of claims to list")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	claims, err := c.claims.ListUnresolved(ctx, *limit)
	if err != nil {
		return fmt.Errorf("list claims: %w", err)
	}
	if len(claims) == 0 {
		fmt.Fprintln(c.out, "no unresolved security claims")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tTYPE\tIP\tCREATED\tDESCRIPTION")
	for _, cl := range claims {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			cl.ID, cl.UserID, cl.ClaimType, cl.IPAddress,
			cl.CreatedAt.UTC().Format(time.RFC3339), cl.Description)
	}
	return tw.Flush()
}

func (c *cli) setResolved(ctx context.Context, id string, resolved bool) error {
	claim, err := c.claims.SetResolved(ctx, id, resolved)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("security claim %s not found", id)
		}
		return fmt.Errorf("update claim: %w", err)
	}

	state := "reopened"
	if claim.Resolved {
		state = "resolved"
	}
	fmt.Fprintf(c.out, "claim %s %s\n", claim.ID, state)
	return nil
}

func (c *cli) unlock(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if err := c.locks.Unlock(ctx, email); err != nil {
		return fmt.Errorf("unlock %s: %w", email, err)
	}
	if err := c.attempts.Reset(ctx, email); err != nil {
		return fmt.Errorf("reset attempts for %s: %w", email, err)
	}
	fmt.Fprintf(c.out, "unlocked %s\n", email)
	return nil
}

// unlockAll also drops the counters; a surviving count at the threshold
// would relock the account on its next failure.
func (c *cli) unlockAll(ctx context.Context) error {
	n, err := c.locks.UnlockAll(ctx)
	if err != nil {
		return fmt.Errorf("unlock all: %w", err)
	}
	cleared, err := c.attempts.ResetAll(ctx)
	if err != nil {
		return fmt.Errorf("reset all attempts: %w", err)
	}
	fmt.Fprintf(c.out, "lifted %d lockout(s), cleared %d counter(s)\n", n, cleared)
	return nil
}
