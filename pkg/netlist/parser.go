// Package netlist parses a small card-per-line circuit description and
// builds a locked circuit from it.
//
// Format: the first line is a title. Lines starting with "*" are
// comments, lines starting with "+" continue the previous card. Cards:
//
//	R<name> <nodeA> <nodeB> <resistance>
//	C<name> <nodeA> <nodeB> <capacitance>
//	V<name> <node> <voltage>          forced-voltage node
//	A<name> <negNode> <outNode>       linear op-amp
//	U<name> <negNode> <outNode>       comparator
//
// Node "0" or "gnd" is ground. Values accept SPICE unit suffixes
// (k, meg, u, n, p, ...).
package netlist

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

type Element struct {
	Type  string   // card type: R, C, V, A, U
	Name  string   // card name, e.g. "R1"
	Nodes []string // node names
	Value float64  // component value (unused for A and U)
}

type Netlist struct {
	Title    string
	Elements []Element
}

var unitMap = map[string]float64{
	"T":   1e12,
	"G":   1e9,
	"meg": 1e6,
	"K":   1e3,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

func Parse(input string) (*Netlist, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	data := &Netlist{}

	// Title or comment
	if scanner.Scan() {
		data.Title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	var currentLine string
	flush := func() error {
		if currentLine == "" {
			return nil
		}
		err := parseLine(data, currentLine)
		currentLine = ""
		return err
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 || strings.HasPrefix(line, "*") {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(line, "+") { // line continuation
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		currentLine = line
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return data, nil
}

func parseLine(data *Netlist, line string) error {
	element, err := parseElement(line)
	if err != nil {
		return err
	}
	data.Elements = append(data.Elements, *element)
	return nil
}

func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("netlist: malformed card %q", line)
	}

	name := fields[0]
	elemType := strings.ToUpper(name[:1])

	switch elemType {
	case "R", "C":
		if len(fields) != 4 {
			return nil, fmt.Errorf("netlist: %s card needs 2 nodes and a value: %q", elemType, line)
		}
		value, err := parseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("netlist: %s: %v", name, err)
		}
		return &Element{Type: elemType, Name: name, Nodes: fields[1:3], Value: value}, nil

	case "V":
		if len(fields) != 3 {
			return nil, fmt.Errorf("netlist: V card needs a node and a voltage: %q", line)
		}
		value, err := parseValue(fields[2])
		if err != nil {
			return nil, fmt.Errorf("netlist: %s: %v", name, err)
		}
		return &Element{Type: elemType, Name: name, Nodes: fields[1:2], Value: value}, nil

	case "A", "U":
		if len(fields) != 3 {
			return nil, fmt.Errorf("netlist: %s card needs a negative-input node and an output node: %q", elemType, line)
		}
		return &Element{Type: elemType, Name: name, Nodes: fields[1:3]}, nil

	default:
		return nil, fmt.Errorf("netlist: unknown card type %q in %q", elemType, line)
	}
}

func parseValue(s string) (float64, error) {
	// Split the numeric prefix from a unit suffix, e.g. "4.7meg".
	numEnd := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E' {
			numEnd = i
			break
		}
	}

	value, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}

	suffix := s[numEnd:]
	if suffix == "" {
		return value, nil
	}
	if factor, ok := unitMap[suffix]; ok {
		return value * factor, nil
	}
	// Tolerate trailing unit names like "5kOhm" or "2uF".
	// "meg" must win over the single-letter "m".
	if strings.HasPrefix(suffix, "meg") {
		return value * 1e6, nil
	}
	if factor, ok := unitMap[suffix[:1]]; ok {
		return value * factor, nil
	}
	return 0, fmt.Errorf("unknown unit suffix %q in %q", suffix, s)
}
