package paywall

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log"
	"strings"
)

const URL_ATTRIBUTE = "url"

// banksPath is where the bank list lives inside the wall response, below the
// <trade> root.
var banksPath = []string{"payments", "payment", "banks"}

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

// lastChild returns the last child called name. The wall may repeat a node;
// only the last occurrence is honoured, which mirrors how lenient XML to
// object folding behaves. Genuinely distinct repeated values are lost.
func (n *node) lastChild(name string) *node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// ParseBankOptions extracts the bank options from a payment wall response.
// Options come back in document order, one per provider.
func ParseBankOptions(body []byte) ([]BankOption, error) {
	var root node
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&root); err != nil {
		return nil, fmt.Errorf("cannot parse payment wall response: %w", err)
	}
	if root.XMLName.Local != "trade" {
		return nil, fmt.Errorf("%w: root element is <%s>, want <trade>", ErrUnexpectedShape, root.XMLName.Local)
	}

	current := &root
	for _, name := range banksPath {
		current = current.lastChild(name)
		if current == nil {
			return nil, fmt.Errorf("%w: missing <%s>", ErrUnexpectedShape, name)
		}
	}

	var order []string
	byProvider := make(map[string]BankOption)
	for _, bank := range current.Children {
		option, err := toBankOption(bank)
		if err != nil {
			return nil, err
		}
		if _, seen := byProvider[option.Provider]; seen {
			log.Printf("Provider %s listed more than once, keeping the last entry", option.Provider)
		} else {
			order = append(order, option.Provider)
		}
		byProvider[option.Provider] = option
	}

	options := make([]BankOption, 0, len(order))
	for _, provider := range order {
		options = append(options, byProvider[provider])
	}
	return options, nil
}

func toBankOption(bank node) (BankOption, error) {
	option := BankOption{
		Provider:   bank.XMLName.Local,
		Fields:     make(map[string]string, len(bank.Children)),
		Attributes: make(map[string]string),
	}
	for _, attr := range bank.Attrs {
		if attr.Name.Local == URL_ATTRIBUTE {
			option.URL = strings.TrimSpace(attr.Value)
			continue
		}
		option.Attributes[attr.Name.Local] = attr.Value
	}
	if option.URL == "" {
		return BankOption{}, fmt.Errorf("%w: bank %s has no %s attribute", ErrUnexpectedShape, option.Provider, URL_ATTRIBUTE)
	}
	for _, field := range bank.Children {
		// last wins, see lastChild. Values go to the bank untouched.
		option.Fields[field.XMLName.Local] = field.Text
	}
	return option, nil
}
