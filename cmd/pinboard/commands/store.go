package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dyluth/pinboard/internal/config"
	dockerpkg "github.com/dyluth/pinboard/internal/docker"
	"github.com/dyluth/pinboard/internal/engine"
	"github.com/dyluth/pinboard/internal/instance"
	"github.com/dyluth/pinboard/internal/loader"
	"github.com/dyluth/pinboard/internal/merge"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/dyluth/pinboard/internal/resolver"
	"github.com/dyluth/pinboard/internal/session"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// env is everything a store-backed command needs.
type env struct {
	cfg    *config.PinboardConfig
	client *board.Client
	log    *logrus.Logger
}

func (e *env) Close() error {
	return e.client.Close()
}

// loadConfig reads pinboard.yml (or the defaults when it is absent) and
// applies the global flag overrides.
func loadConfig() (*config.PinboardConfig, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Fix %s or regenerate it:\n  pinboard init --force", configPath)},
		)
	}

	if instanceFlag != "" {
		cfg.Store.Instance = instanceFlag
	}
	if logLevelFlag != "" {
		level, err := logrus.ParseLevel(logLevelFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.LogLevel = level.String()
	}
	return cfg, nil
}

func newLogger(cfg *config.PinboardConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(cfg.Level())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// connect opens the store named by the configuration: store.redis_url when
// set, otherwise the Redis of a running local instance.
func connect(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	url := cfg.Store.RedisURL
	if url == "" {
		url, err = instanceRedisURL(ctx, cfg.Store.Instance)
		if err != nil {
			return nil, err
		}
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL '%s': %w", url, err)
	}

	client, err := board.NewClient(opts, cfg.Store.Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create store client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"store not reachable",
			fmt.Sprintf("Could not connect to Redis: %v", err),
			map[string]string{"Redis": url, "Namespace": cfg.Store.Namespace},
			[]string{"Start a local store:\n  pinboard up", "Check store.redis_url in " + configPath},
		)
	}

	log.WithFields(logrus.Fields{"redis": url, "namespace": cfg.Store.Namespace}).Debug("Connected to store")
	return &env{cfg: cfg, client: client.WithActor(cfg.User.ID), log: log}, nil
}

func instanceRedisURL(ctx context.Context, name string) (string, error) {
	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		if !errors.Is(err, dockerpkg.ErrDaemonUnavailable) {
			return "", err
		}
		return "", printer.Error(
			"no store configured",
			"pinboard.yml has no store.redis_url and Docker is not available to find a local instance.",
			[]string{"Set store.redis_url in " + configPath, "Start Docker and run:\n  pinboard up"},
		)
	}
	defer cli.Close()

	_, url, err := instance.ResolveRedisURL(ctx, cli, name)
	switch {
	case errors.Is(err, instance.ErrNoInstances):
		return "", printer.Error(
			"no pinboard instances found",
			"No running local store was found.",
			[]string{"Start one:\n  pinboard up", "Or set store.redis_url in " + configPath},
		)
	case errors.Is(err, instance.ErrMultipleInstances):
		return "", printer.Error(
			"multiple instances found",
			err.Error(),
			[]string{"Pick one:\n  pinboard --instance <name> ...", "List instances:\n  pinboard ls"},
		)
	case err != nil:
		return "", fmt.Errorf("failed to find local instance: %w", err)
	}
	return url, nil
}

// requireUser fails when no acting user is configured.
func (e *env) requireUser() error {
	if e.cfg.User.ID != "" {
		return nil
	}
	return printer.Error(
		"no user configured",
		"Board commands act on behalf of the user in pinboard.yml (user.id) or $"+config.EnvUser+".",
		[]string{"Create a user and make it the default:\n  pinboard user add you@example.com \"Your Name\" --use"},
	)
}

// boardID resolves --board, falling back to the configured default board.
func (e *env) boardID(ctx context.Context) (string, error) {
	if boardFlag != "" {
		id, err := resolver.ResolveBoard(ctx, e.client, boardFlag)
		if err != nil {
			return "", explain(err)
		}
		return id, nil
	}
	if e.cfg.Board != "" {
		return e.cfg.Board, nil
	}
	return "", printer.Error(
		"no board selected",
		"This command needs a board.",
		[]string{"Pass one:\n  pinboard --board <board> ...", "Or make one the default:\n  pinboard board use <board>"},
	)
}

// openBoard connects, resolves the board and mounts a session on it.
func openBoard(ctx context.Context, listener merge.Listener) (*env, *session.Session, error) {
	e, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := e.requireUser(); err != nil {
		e.Close()
		return nil, nil, err
	}

	boardID, err := e.boardID(ctx)
	if err != nil {
		e.Close()
		return nil, nil, err
	}

	sess, err := session.Open(ctx, e.client, boardID, session.Options{
		CallerID:       e.cfg.User.ID,
		ActivityLimit:  e.cfg.Sync.ActivityLimit,
		RequestTimeout: e.cfg.Sync.RequestTimeout,
		Logger:         e.log,
		Listener:       listener,
	})
	if err != nil {
		e.Close()
		return nil, nil, explain(err)
	}
	return e, sess, nil
}

// withBoard runs fn against a freshly mounted board and tears it down after.
func withBoard(fn func(ctx context.Context, eng *engine.Engine) error) error {
	ctx := context.Background()
	e, sess, err := openBoard(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()
	defer sess.Close()

	if err := fn(ctx, sess.Engine()); err != nil {
		return explain(err)
	}
	return nil
}

// explain turns engine, loader and resolver errors into formatted CLI errors.
// Errors already printed pass through unchanged.
func explain(err error) error {
	var (
		loadErr    *loader.LoadError
		validErr   *engine.ValidationError
		notFound   *engine.NotFoundError
		remoteErr  *engine.RemoteRequestError
		ambiguous  *resolver.AmbiguousError
		unresolved *resolver.NotFoundError
	)

	switch {
	case errors.As(err, &loadErr):
		switch loadErr.Status {
		case loader.StatusUnauthenticated:
			return printer.Error("not signed in", "The store needs an acting user to open boards.",
				[]string{"Set user.id in " + configPath})
		case loader.StatusAccessDenied:
			return printer.Error("access denied", fmt.Sprintf("You are not a member of board %s.", loadErr.BoardID),
				[]string{"Ask the board owner to run:\n  pinboard member invite <your email>"})
		default:
			return printer.Error("board not found", fmt.Sprintf("Board %s does not exist.", loadErr.BoardID),
				[]string{"List your boards:\n  pinboard board ls"})
		}

	case errors.As(err, &validErr):
		return printer.Error("invalid input", validErr.Error(), nil)

	case errors.As(err, &notFound):
		return printer.Error(notFound.Error(), fmt.Sprintf("The %s is not on this board.", notFound.Kind),
			[]string{"Show the board:\n  pinboard board show"})

	case errors.Is(err, engine.ErrPendingIdentity):
		return printer.Error("not saved yet", "The target is still being created. Retry in a moment.", nil)

	case errors.As(err, &remoteErr):
		if errors.Is(remoteErr.Err, board.ErrForbidden) {
			return printer.Error("permission denied", "Your role on this board does not allow this change.", nil)
		}
		return printer.Error(fmt.Sprintf("%s failed", remoteErr.Op),
			fmt.Sprintf("The store rejected the change and it was rolled back.\n\n%v", remoteErr.Err), nil)

	case errors.As(err, &ambiguous):
		return printer.Error("ambiguous reference", resolver.FormatAmbiguousError(ambiguous), nil)

	case errors.As(err, &unresolved):
		return printer.Error(unresolved.Error(), fmt.Sprintf("No %s matches that ID prefix or title.", unresolved.Kind), nil)
	}

	return err
}
