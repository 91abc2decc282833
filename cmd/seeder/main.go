//cmd/seeder/main.go
package main

import (
    "context"
    "fmt"
    "io"
    "os"

    log "github.com/sirupsen/logrus"
    "gopkg.in/yaml.v3"

    "github.com/unclebandit/opsboard-backend/internal/config"
    "github.com/unclebandit/opsboard-backend/internal/db"
    "github.com/unclebandit/opsboard-backend/internal/logging"
    "github.com/unclebandit/opsboard-backend/internal/model"
    "github.com/unclebandit/opsboard-backend/internal/repository"
    "github.com/unclebandit/opsboard-backend/internal/service"
)

type seedFile struct {
    Entities []seedEntity `yaml:"entities"`
}

type seedEntity struct {
    Name      string         `yaml:"name"`
    Templates []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
    Trigger string `yaml:"trigger"`
    Subject string `yaml:"subject"`
    Body    string `yaml:"body"`
    Active  bool   `yaml:"active"`
}

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatal(err)
    }
    logging.Setup(cfg.LogLevel, cfg.LogFormat)

    path := "seed/seed.yaml"
    if len(os.Args) > 1 {
        path = os.Args[1]
    }
    f, err := os.Open(path)
    if err != nil {
        log.Fatalf("failed to read %s: %v", path, err)
    }
    defer f.Close()

    seed, err := loadSeed(f)
    if err != nil {
        log.Fatalf("failed to parse %s: %v", path, err)
    }

    ctx := context.Background()
    conn, err := db.Connect(cfg.DB)
    if err != nil {
        log.Fatal(err)
    }
    defer conn.Close()
    if err := db.Migrate(ctx, conn); err != nil {
        log.Fatal(err)
    }

    entityRepo := &repository.EntityRepository{DB: conn}
    templates := &service.TemplateService{Repo: &repository.TemplateRepository{DB: conn}, EntityRepo: entityRepo}

    created, err := apply(ctx, seed, entityRepo, templates)
    if err != nil {
        log.Fatal(err)
    }
    fmt.Printf("Seeded: %s (%d entities, %d templates)\n", path, created.entities, created.templates)
    fmt.Println("Database seeding completed successfully!")
}

func loadSeed(r io.Reader) (*seedFile, error) {
    var seed seedFile
    dec := yaml.NewDecoder(r)
    dec.KnownFields(true)
    if err := dec.Decode(&seed); err != nil {
        return nil, err
    }
    for i, e := range seed.Entities {
        if e.Name == "" {
            return nil, fmt.Errorf("entity %d has no name", i+1)
        }
    }
    return &seed, nil
}

type seedCounts struct {
    entities  int
    templates int
}

// apply creates missing entities, then their templates. An entity that
// already has templates is left alone so the seeder can be re-run.
func apply(ctx context.Context, seed *seedFile, entities repository.EntityRepositoryInterface, templates *service.TemplateService) (seedCounts, error) {
    var counts seedCounts

    existing, err := entities.List(ctx)
    if err != nil {
        return counts, err
    }
    byName := map[string]*model.Entity{}
    for _, e := range existing {
        byName[e.Name] = e
    }

    for _, se := range seed.Entities {
        entity, ok := byName[se.Name]
        if !ok {
            entity = &model.Entity{Name: se.Name}
            if err := entities.Create(ctx, entity); err != nil {
                return counts, fmt.Errorf("create entity %q: %w", se.Name, err)
            }
            byName[se.Name] = entity
            counts.entities++
        }

        current, err := templates.ListTemplates(ctx, entity.ID)
        if err != nil {
            return counts, err
        }
        if len(current) > 0 {
            log.WithField("entity", se.Name).Info("templates already present, skipping")
            continue
        }
        for _, st := range se.Templates {
            _, err := templates.CreateTemplate(ctx, entity.ID, service.TemplateInput{
                TriggerEvent: st.Trigger,
                Subject:      st.Subject,
                Body:         st.Body,
                IsActive:     st.Active,
            })
            if err != nil {
                return counts, fmt.Errorf("template %s for %q: %w", st.Trigger, se.Name, err)
            }
            counts.templates++
        }
    }
    return counts, nil
}
