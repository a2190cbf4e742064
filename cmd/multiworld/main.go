// Command multiworld spins up a networked entity manager from environment configuration, runs a
// short spawn, sync and despawn sequence, and logs the resulting world layout.
package main

import (
	"errors"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pkg.world.dev/world-engine/multiworld/config"
	"pkg.world.dev/world-engine/multiworld/entity"
	"pkg.world.dev/world-engine/multiworld/idalloc"
	"pkg.world.dev/world-engine/multiworld/netsync"
	"pkg.world.dev/world-engine/multiworld/prototype"
	"pkg.world.dev/world-engine/multiworld/statsd"
	"pkg.world.dev/world-engine/multiworld/world"
	"pkg.world.dev/world-engine/multiworld/worlds"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("namespace", cfg.Namespace).Logger().Level(cfg.Level())

	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, []string{"namespace:" + cfg.Namespace}); err != nil {
			logger.Fatal().Err(err).Msg("failed to init statsd")
		}
	}

	prototypes, err := buildPrototypes()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build prototypes")
	}

	switch cfg.IDAllocator {
	case config.AllocatorUUID:
		err = run(&logger, prototypes, idalloc.UUID)
	case config.AllocatorRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		err = run(&logger, prototypes, idalloc.NewRedis(client, cfg.Namespace, 0, &logger).Next)
	default:
		err = run(&logger, prototypes, idalloc.NewSequential[int64]().Next)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}
}

// buildPrototypes gives every world the Goblin. Arrows only exist in the simulation and view, so
// server data and prediction decline them.
func buildPrototypes() (entity.Prototypes, error) {
	goblin := prototype.Template{ID: "Goblin", Components: []world.Component{Health{HP: 30}, Position{}}}
	arrow := prototype.Template{ID: "Arrow", Components: []world.Component{Position{}, Velocity{DX: 1}}}

	all, err := prototype.NewMapRepository(goblin, arrow)
	if err != nil {
		return nil, err
	}
	goblinsOnly, err := prototype.NewMapRepository(goblin)
	if err != nil {
		return nil, err
	}

	prototypes := entity.SharedPrototypes(all, worlds.RegistryWorldID, worlds.SimulationWorldID, worlds.ViewWorldID)
	prototypes[worlds.ServerDataWorldID] = goblinsOnly
	prototypes[worlds.PredictionWorldID] = goblinsOnly
	return prototypes, nil
}

func run[ID comparable](logger *zerolog.Logger, prototypes entity.Prototypes, allocate func() ID) error {
	m, err := entity.NewNetworkManager(prototypes, allocate, entity.WithLogger(logger))
	if err != nil {
		return err
	}

	registry := netsync.NewRegistry()
	if err := errors.Join(
		netsync.Register[Health](registry),
		netsync.Register[Position](registry),
		netsync.Register[Velocity](registry),
	); err != nil {
		return err
	}
	state := netsync.NewStateVisitor(m, registry, logger)

	var goblins []ID
	for range 3 {
		id, err := m.SpawnEntity("Goblin", entity.PresetDefault)
		if err != nil {
			return err
		}
		goblins = append(goblins, id)
	}
	remote, err := m.ResolveEntity(netObject{NetID: 1}, "Goblin", entity.PresetDefault)
	if err != nil {
		return err
	}
	arrow, err := m.SpawnEntity("Arrow", entity.PresetDefault)
	if err != nil {
		return err
	}
	if _, err := m.SpawnWorldLocalEntity("Arrow", worlds.SimulationWorldID); err != nil {
		return err
	}

	// The server reports the remote goblin took damage; prediction follows server data.
	serverData, err := m.EntityWorldsRepository().GetWorld(worlds.ServerDataWorldID)
	if err != nil {
		return err
	}
	for local, idc := range world.Each[entity.EntityIDComponent[ID]](serverData) {
		if idc.ID == remote {
			if err := world.Set(local, Health{HP: 12}); err != nil {
				return err
			}
		}
	}
	report, err := state.Reconcile(worlds.ServerDataWorldID, worlds.PredictionWorldID)
	if err != nil {
		return err
	}
	logger.Info().Int("patched", report.Patched).Msg("prediction reconciled")

	m.LogState(zerolog.InfoLevel)

	if err := m.DespawnEntity(goblins[0]); err != nil {
		return err
	}
	if err := m.DespawnEntity(arrow); err != nil {
		return err
	}
	m.LogState(zerolog.InfoLevel)
	return nil
}
