package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rzpsarthak13/orius/internal/catalog"
	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/events"
	"github.com/rzpsarthak13/orius/pkg/orius"
)

const usage = `usage: orius [-config file] <command> [flags]

commands:
  generators            list user generators
  trigger -table T      show the BEFORE INSERT triggers of T and their generators
  export -out db.json   write table metadata as JSON
  demo                  insert, find, update, count and delete a T_ATO row
  events [-follow]      print record events published to the Kafka topic
`

func main() {
	configPath := flag.String("config", "", "YAML or JSON configuration file (env vars override)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := orius.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "events" {
		if err := runEvents(ctx, cfg, args); err != nil {
			log.Fatalf("events failed: %v", err)
		}
		return
	}

	client, err := orius.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create orius client: %v", err)
	}
	defer client.Close()

	switch cmd {
	case "generators":
		err = runGenerators(ctx, client.Inspector(), args)
	case "trigger":
		err = runTrigger(ctx, client.Inspector(), args)
	case "export":
		err = runExport(ctx, client.Inspector(), args)
	case "demo":
		err = runDemo(ctx, client, args)
	default:
		flag.Usage()
		client.Close()
		os.Exit(2)
	}
	if err != nil {
		client.Close()
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func runGenerators(ctx context.Context, in *orius.Inspector, args []string) error {
	fs := flag.NewFlagSet("generators", flag.ExitOnError)
	table := fs.String("table", "", "only show generators that look related to this table")
	fs.Parse(args)

	gens, err := in.Generators(ctx)
	if err != nil {
		return err
	}
	if *table != "" {
		gens = catalog.SuggestGenerators(gens, *table)
	}
	if len(gens) == 0 {
		log.Println("No generators found")
		return nil
	}
	for _, g := range gens {
		fmt.Printf("%-40s %d\n", g.Name, g.ID)
	}
	return nil
}

func runTrigger(ctx context.Context, in *orius.Inspector, args []string) error {
	fs := flag.NewFlagSet("trigger", flag.ExitOnError)
	table := fs.String("table", "T_ATO", "table whose triggers are inspected")
	showSource := fs.Bool("source", false, "print the trigger source")
	fs.Parse(args)

	triggers, err := in.TriggerGenerator(ctx, *table)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		log.Printf("No active BEFORE INSERT trigger on %s; inserts will fall back to MAX+1", *table)
		return nil
	}
	for _, tr := range triggers {
		generator := tr.Generator
		if generator == "" {
			generator = "-"
		}
		fmt.Printf("%-40s %s\n", tr.Name, generator)
		if *showSource {
			fmt.Println(tr.Source)
		}
	}
	return nil
}

func runExport(ctx context.Context, in *orius.Inspector, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "db.json", "output file")
	fs.Parse(args)

	md, err := in.Metadata(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	if err := catalog.ExportJSON(f, md); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	log.Printf("✓ Exported %d table(s) to %s", len(md), *out)
	return nil
}

// atoSchema describes the notary act table the demo runs against.
func atoSchema(sequence string) (*orius.Schema, error) {
	return orius.NewSchema("T_ATO",
		orius.Column{Name: "ATO_ID", Kind: orius.KindBigInt, PrimaryKey: true, AutoIncrement: true, Sequence: sequence},
		orius.Column{Name: "ATO_TIPO_ID", Kind: orius.KindInteger, Nullable: true},
		orius.Column{Name: "PROTOCOLO", Kind: orius.KindInteger},
		orius.Column{Name: "SITUACAO_ATO", Kind: orius.KindString},
		orius.Column{Name: "OBSERVACAO", Kind: orius.KindString, Nullable: true},
		orius.Column{Name: "TEXTO", Kind: orius.KindText, Nullable: true},
		orius.Column{Name: "TEXTO_ASSINATURA", Kind: orius.KindBinary, Nullable: true},
		orius.Column{Name: "VALOR_PAGAMENTO", Kind: orius.KindDecimal, Nullable: true},
		orius.Column{Name: "DATA_LAVRATURA", Kind: orius.KindTimestamp, Nullable: true},
	)
}

func runDemo(ctx context.Context, client orius.Client, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	sequence := fs.String("sequence", "", "generator feeding ATO_ID (default: MAX+1)")
	protocol := fs.Int("protocolo", 9999, "PROTOCOLO of the demo row")
	fs.Parse(args)

	schema, err := atoSchema(*sequence)
	if err != nil {
		return err
	}
	atos, err := client.Define(ctx, schema)
	if err != nil {
		return err
	}

	log.Println("1. Insert")
	ato, err := atos.Build(map[string]interface{}{
		"ATO_TIPO_ID":     nil,
		"SITUACAO_ATO":    "1",
		"PROTOCOLO":       *protocol,
		"VALOR_PAGAMENTO": 150.00,
	})
	if err != nil {
		return err
	}
	if _, err := ato.Save(ctx); err != nil {
		return err
	}
	id, _ := ato.PrimaryKeyValue()
	log.Printf("✓ Inserted %s", ato)

	log.Println("2. FindOne")
	found, err := atos.FindOne(ctx, orius.NewQuery().
		Filter(orius.Where("ATO_ID", id)).
		Select("ATO_ID", "PROTOCOLO", "OBSERVACAO", "SITUACAO_ATO"))
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("row %v not found after insert", id)
	}
	log.Printf("✓ Found PROTOCOLO %v", found.Get("PROTOCOLO"))

	log.Println("3. Update")
	if err := ato.Set("OBSERVACAO", "Changed at "+time.Now().Format("15:04:05")); err != nil {
		return err
	}
	if _, err := ato.Save(ctx); err != nil {
		return err
	}
	log.Printf("✓ OBSERVACAO is now %q", ato.Get("OBSERVACAO"))

	log.Println("4. Count")
	total, err := atos.Count(ctx, orius.Where("PROTOCOLO", *protocol))
	if err != nil {
		return err
	}
	log.Printf("✓ %d row(s) with PROTOCOLO %d", total, *protocol)

	log.Println("5. Delete")
	if err := ato.Delete(ctx); err != nil {
		return err
	}
	gone, err := atos.FindByPK(ctx, id)
	if err != nil {
		return err
	}
	if gone != nil {
		return fmt.Errorf("row %v still exists after delete", id)
	}
	log.Printf("✓ Row %v deleted", id)
	return nil
}

// runEvents reads record events from the configured Kafka topic and prints
// one JSON line per event. Without -follow it stops once -wait passes.
func runEvents(ctx context.Context, cfg *orius.Config, args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	follow := fs.Bool("follow", false, "keep reading until interrupted")
	wait := fs.Duration("wait", 5*time.Second, "how long to read without -follow")
	group := fs.String("group", "", "consumer group (default: events.kafka_config.group_id)")
	fs.Parse(args)

	kafkaCfg := cfg.Events.KafkaConfig
	if *group != "" {
		kafkaCfg.GroupID = *group
	}
	consumer, err := events.NewKafkaConsumer(kafkaCfg)
	if err != nil {
		return err
	}
	defer consumer.Close()

	if !*follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *wait)
		defer cancel()
	}

	enc := json.NewEncoder(os.Stdout)
	seen := 0
	err = consumer.Consume(ctx, func(_ context.Context, event *core.RecordEvent) error {
		seen++
		return enc.Encode(event)
	})
	log.Printf("✓ Read %d event(s) from %s", seen, kafkaCfg.Topic)
	return err
}
