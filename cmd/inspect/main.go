package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/delaneyj/resumeparty/resume"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	groupsKey = "groups"
	edgesKey  = "edges"
	itersKey  = "iters"
)

func main() {
	cmd := &cli.Command{
		Name:  "inspect",
		Usage: "Inspect and benchmark resumeparty snapshots",
		Commands: []*cli.Command{
			{
				Name:      "dump",
				Usage:     "Render a snapshot's scopes and edge records",
				ArgsUsage: "<snapshot.json>",
				Action:    dump,
			},
			{
				Name:  "bench",
				Usage: "Measure subscription manager throughput",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: groupsKey, Usage: "subscriber groups", Value: 100},
					&cli.IntFlag{Name: edgesKey, Usage: "edges per group", Value: 10},
					&cli.IntFlag{Name: itersKey, Usage: "measured iterations", Value: 100},
				},
				Action: bench,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var kindNames = map[string]string{
	"0": "host",
	"1": "attr",
	"2": "prop",
	"3": "node",
	"4": "text",
}

func dump(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: inspect dump <snapshot.json>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap resume.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	scopes := table.NewWriter()
	scopes.SetTitle("Scopes (digest %s)", snap.Digest)
	scopes.SetOutputMirror(os.Stdout)
	scopes.AppendHeader(table.Row{"scope", "value size", "edges"})
	var totalEdges int
	for _, scope := range snap.Scopes {
		totalEdges += len(scope.Subs)
		scopes.AppendRows([]table.Row{
			{scope.ID, humanize.Bytes(uint64(len(scope.Value))), len(scope.Subs)},
		})
	}
	scopes.AppendFooter(table.Row{
		humanize.Comma(int64(len(snap.Scopes))) + " scopes",
		humanize.Bytes(uint64(len(data))),
		humanize.Comma(int64(totalEdges)),
	})
	scopes.Render()

	if totalEdges == 0 {
		return nil
	}
	edges := table.NewWriter()
	edges.SetTitle("Edge records")
	edges.SetOutputMirror(os.Stdout)
	edges.AppendHeader(table.Row{"scope", "kind", "record"})
	for _, scope := range snap.Scopes {
		for _, record := range scope.Subs {
			tag, _, _ := strings.Cut(record, " ")
			kind, ok := kindNames[tag]
			if !ok {
				kind = "corrupt"
			}
			edges.AppendRows([]table.Row{{scope.ID, kind, record}})
		}
	}
	edges.Render()
	return nil
}

func bench(ctx context.Context, cmd *cli.Command) error {
	nGroups := int(cmd.Int(groupsKey))
	nEdges := int(cmd.Int(edgesKey))
	iters := int(cmd.Int(itersKey))

	log.Printf("benchmarking %s groups x %s edges",
		humanize.Comma(int64(nGroups)), humanize.Comma(int64(nEdges)))

	type run struct {
		name string
		fn   func(c *resume.Container, m *resume.Manager, groups []*benchGroup)
	}
	runs := []run{
		{"addEdge", func(c *resume.Container, m *resume.Manager, groups []*benchGroup) {
			for _, g := range groups {
				for e := 0; e < nEdges; e++ {
					key := "k" + strconv.Itoa(e)
					m.AddEdge(resume.HostSubscription{Group: g}, &key)
				}
			}
		}},
		{"notify", func(c *resume.Container, m *resume.Manager, groups []*benchGroup) {
			m.Notify(resume.Key("k0"))
		}},
		{"clearGroup", func(c *resume.Container, m *resume.Manager, groups []*benchGroup) {
			for _, g := range groups {
				c.ClearGroup(g)
			}
		}},
	}

	report := tablewriter.NewWriter(os.Stdout)
	report.SetHeader([]string{"op", "iters", "avg", "p99", "max"})

	for _, r := range runs {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		for i := 0; i < iters; i++ {
			c := resume.CreateContainer(
				resume.WithSchedule(func(sub resume.Subscription, state any) {}),
			)
			m := c.CreateManager()
			groups := make([]*benchGroup, nGroups)
			for g := range groups {
				groups[g] = &benchGroup{id: g}
			}
			if r.name != "addEdge" {
				seed(m, groups, nEdges)
			}

			start := time.Now()
			r.fn(c, m, groups)
			tach.AddTime(time.Since(start))
		}
		calc := tach.Calc()
		report.Append([]string{
			r.name,
			humanize.Comma(int64(iters)),
			calc.Time.Avg.String(),
			calc.Time.P99.String(),
			calc.Time.Max.String(),
		})
	}
	report.Render()
	return nil
}

type benchGroup struct{ id int }

func seed(m *resume.Manager, groups []*benchGroup, nEdges int) {
	for _, g := range groups {
		for e := 0; e < nEdges; e++ {
			key := "k" + strconv.Itoa(e)
			m.AddEdges(resume.HostSubscription{Group: g, Key: &key})
		}
	}
}
