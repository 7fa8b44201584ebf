// Package review implements the terminal front end used by both the
// pending-play review and the duplicate-work review.
package review

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"

	"radiomon/internal/cluster"
	"radiomon/internal/resolver"
)

// Terminal prompts a human on stdin/stdout. It implements both
// resolver.PlayReviewer and cluster.Reviewer.
type Terminal struct {
	in    *bufio.Scanner
	out   io.Writer
	fancy bool
}

// NewTerminal creates a terminal reviewer over the given streams. Table
// styling is enabled only when out is a TTY.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	fancy := false
	if f, ok := out.(*os.File); ok {
		fancy = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Terminal{
		in:    bufio.NewScanner(in),
		out:   out,
		fancy: fancy,
	}
}

// ReviewPlay presents a pending play and reads one decision.
func (t *Terminal) ReviewPlay(view resolver.PlayView) (resolver.Action, error) {
	fmt.Fprintf(t.out, "\nplay %d (%d pending)\n  %q by %q\n",
		view.PlayID, view.Remaining, view.Title, view.Performer)

	w := t.newTable()
	w.AppendHeader(table.Row{"#", "id", "title", "performers", "year", "country", "score", "uses"})
	for i, c := range view.Candidates {
		mark := ""
		if c.SongID == view.SuggestedID {
			mark = " *"
		}
		w.AppendRow(table.Row{
			fmt.Sprintf("%d%s", i+1, mark), c.SongID,
			c.Title, c.Performers, orDash(c.Year), c.Country,
			fmt.Sprintf("%.2f", c.Score), c.Uses,
		})
	}
	w.Render()

	for {
		line, err := t.prompt("[#] pick  (a)ccept *  (s)potify  (m)usicbrainz  (t)ype  (e)dit  (i)gnore  (k) skip  (q)uit")
		if err != nil {
			return resolver.Action{}, err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "a":
			return resolver.Action{Op: resolver.OpAccept}, nil
		case "s":
			return resolver.Action{Op: resolver.OpSpotify}, nil
		case "m":
			return resolver.Action{Op: resolver.OpMusicBrainz}, nil
		case "i":
			return resolver.Action{Op: resolver.OpIgnore}, nil
		case "k":
			return resolver.Action{Op: resolver.OpSkip}, nil
		case "q":
			return resolver.Action{Op: resolver.OpQuit}, nil
		case "t":
			title, err := t.ask("title")
			if err != nil {
				return resolver.Action{}, err
			}
			performer, err := t.ask("performers")
			if err != nil {
				return resolver.Action{}, err
			}
			return resolver.Action{Op: resolver.OpManual, Title: title, Performer: performer}, nil
		case "e":
			if len(view.Candidates) == 0 {
				fmt.Fprintln(t.out, "no candidates to edit")
				continue
			}
			idStr, err := t.ask("song id (empty edits the top candidate)")
			if err != nil {
				return resolver.Action{}, err
			}
			songID := view.Candidates[0].SongID
			if idStr != "" {
				if songID, err = strconv.ParseInt(idStr, 10, 64); err != nil {
					fmt.Fprintln(t.out, "song id must be a number")
					continue
				}
			}
			year, country, err := t.askMeta()
			if err != nil {
				return resolver.Action{}, err
			}
			if year == nil && country == "" {
				fmt.Fprintln(t.out, "nothing to edit")
				continue
			}
			return resolver.Action{Op: resolver.OpEdit, SongID: songID, Year: year, Country: country}, nil
		default:
			if n, err := strconv.Atoi(fields[0]); err == nil && n >= 1 && n <= len(view.Candidates) {
				return resolver.Action{Op: resolver.OpPick, SongID: view.Candidates[n-1].SongID}, nil
			}
			fmt.Fprintln(t.out, "unrecognized choice")
		}
	}
}

// ReviewCluster presents a master song with its lookalikes and reads one
// verdict.
func (t *Terminal) ReviewCluster(view cluster.View) (cluster.Action, error) {
	fmt.Fprintf(t.out, "\nsong %d: %q by %q (year %s, %d uses)\n",
		view.Master.SongID, view.Master.Title, view.Master.Performers,
		orDash(view.Master.Year), view.Master.ResolutionUses)

	w := t.newTable()
	w.AppendHeader(table.Row{"id", "title", "performers", "year", "score", "uses"})
	for _, p := range view.Partners {
		w.AppendRow(table.Row{
			p.SongID, p.Title, p.Performers, orDash(p.Year),
			fmt.Sprintf("%.2f", p.Score), p.ResolutionUses,
		})
	}
	w.Render()

	for {
		line, err := t.prompt("(j)oin master child...  (d)ifferent  (e)dit  (k) skip  (q)uit")
		if err != nil {
			return cluster.Action{}, err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "d":
			return cluster.Action{Op: cluster.OpDifferent}, nil
		case "k":
			return cluster.Action{Op: cluster.OpSkip}, nil
		case "q":
			return cluster.Action{Op: cluster.OpQuit}, nil
		case "j":
			ids, err := parseIDs(fields[1:])
			if err != nil {
				fmt.Fprintln(t.out, err.Error())
				continue
			}
			if len(ids) < 2 {
				fmt.Fprintln(t.out, "join needs a master id and at least one child id")
				continue
			}
			return cluster.Action{Op: cluster.OpJoin, MasterID: ids[0], JoinIDs: ids[1:]}, nil
		case "e":
			year, country, err := t.askMeta()
			if err != nil {
				return cluster.Action{}, err
			}
			return cluster.Action{Op: cluster.OpEdit, Year: year, Country: country}, nil
		default:
			fmt.Fprintln(t.out, "unrecognized choice")
		}
	}
}

func (t *Terminal) newTable() table.Writer {
	w := table.NewWriter()
	w.SetOutputMirror(t.out)
	if t.fancy {
		w.SetStyle(table.StyleRounded)
	} else {
		w.SetStyle(table.StyleDefault)
		w.Style().Format.Header = text.FormatDefault
	}
	return w
}

func (t *Terminal) prompt(help string) (string, error) {
	fmt.Fprintf(t.out, "%s\n> ", help)
	return t.readLine()
}

func (t *Terminal) ask(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	return t.readLine()
}

// askMeta reads the optional year/country corrections shared by the two
// edit flows. An unparseable year or a country that is not two letters is
// dropped, like an empty answer.
func (t *Terminal) askMeta() (*int, string, error) {
	yearStr, err := t.ask("year (empty keeps current)")
	if err != nil {
		return nil, "", err
	}
	var year *int
	if y, yerr := strconv.Atoi(yearStr); yerr == nil {
		year = &y
	}
	countryStr, err := t.ask("country (empty keeps current)")
	if err != nil {
		return nil, "", err
	}
	country := ""
	if len(countryStr) == 2 {
		country = strings.ToUpper(countryStr)
	}
	return year, country, nil
}

func (t *Terminal) readLine() (string, error) {
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", eris.Wrap(err, "review: read input")
		}
		return "", eris.New("review: input closed")
	}
	return strings.TrimSpace(t.in.Text()), nil
}

func parseIDs(fields []string) ([]int64, error) {
	if len(fields) == 0 {
		return nil, eris.New("join needs at least one song id")
	}
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, eris.Errorf("not a song id: %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func orDash(year int) string {
	if year == 0 {
		return "-"
	}
	return strconv.Itoa(year)
}
