package sandbox

import (
	"encoding/xml"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"paywall-bench/core/payload"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

const BANK_PATH = "/bank/"

// DefaultBanks is the provider list the sandbox wall offers when none is set.
var DefaultBanks = []string{"nordea", "osuuspankki", "danske", "aktia", "spankki", "handelsbanken"}

// Wall is an in-process stand-in for the payment wall. It checks the MAC of
// the posted payload, answers with a trade document listing Banks, and serves
// every bank URL it hands out with a random delay.
type Wall struct {
	Banks []string
	// Signer recomputes the MAC of incoming payloads. Nil accepts any MAC.
	Signer     *payload.Signer
	MinLatency time.Duration
	MaxLatency time.Duration
	// Statuses overrides the status a bank answers with, 200 otherwise.
	Statuses map[string]int
}

func New(signer *payload.Signer) *Wall {
	return &Wall{
		Banks:      DefaultBanks,
		Signer:     signer,
		MinLatency: 50 * time.Millisecond,
		MaxLatency: 400 * time.Millisecond,
	}
}

// Handler serves the wall on "/" and the banks below BANK_PATH. The fiber app
// is exposed as an http.Handler so it runs under httptest and http.Server.
func (w *Wall) Handler() http.Handler {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.All("/", w.serveWall)
	app.All(BANK_PATH+":bank", w.serveBank)
	return adaptor.FiberApp(app)
}

func randInt(lower, upper int) int {
	if upper <= lower {
		return lower
	}
	return rand.Intn(upper-lower) + lower
}

func (w *Wall) serveWall(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).SendString("method not allowed")
	}
	if !w.macMatches(c) {
		log.Printf("Sandbox rejected payload %s: mac mismatch", c.FormValue("STAMP"))
		return c.Status(fiber.StatusUnauthorized).SendString("mac mismatch")
	}

	base := "http://" + c.Hostname() + BANK_PATH
	banks := make([]element, 0, len(w.Banks))
	for _, bank := range w.Banks {
		if bank == "" {
			continue
		}
		banks = append(banks, element{
			XMLName: xml.Name{Local: bank},
			Attrs: []xml.Attr{
				{Name: xml.Name{Local: "url"}, Value: base + bank},
				{Name: xml.Name{Local: "icon"}, Value: base + bank + ".png"},
				{Name: xml.Name{Local: "name"}, Value: strings.ToUpper(bank[:1]) + bank[1:]},
			},
			Children: []element{
				{XMLName: xml.Name{Local: "STAMP"}, Text: c.FormValue("STAMP")},
				{XMLName: xml.Name{Local: "AMOUNT"}, Text: c.FormValue("AMOUNT")},
				{XMLName: xml.Name{Local: "REF"}, Text: c.FormValue("REFERENCE")},
			},
		})
	}
	trade := element{
		XMLName: xml.Name{Local: "trade"},
		Children: []element{
			{XMLName: xml.Name{Local: "id"}, Text: c.FormValue("STAMP")},
			{XMLName: xml.Name{Local: "payments"}, Children: []element{
				{XMLName: xml.Name{Local: "payment"}, Children: []element{
					{XMLName: xml.Name{Local: "banks"}, Children: banks},
				}},
			}},
		},
	}

	body, err := xml.Marshal(trade)
	if err != nil {
		log.Printf("Sandbox couldn't write trade document: %v", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXML)
	return c.Send(append([]byte(xml.Header), body...))
}

func (w *Wall) macMatches(c *fiber.Ctx) bool {
	if w.Signer == nil {
		return true
	}
	received := make(payload.Payload, len(w.Signer.Fields))
	for _, field := range w.Signer.Fields {
		received[field] = c.FormValue(field)
	}
	if key, ok := w.Signer.Defaults["SECURITY_KEY"]; ok {
		received["SECURITY_KEY"] = key
	}
	mac, err := payload.ComputeMac(w.Signer.Algorithm, received, w.Signer.Fields)
	return err == nil && mac == c.FormValue(w.Signer.MacField)
}

func (w *Wall) serveBank(c *fiber.Ctx) error {
	bank := c.Params("bank")
	time.Sleep(time.Duration(randInt(int(w.MinLatency), int(w.MaxLatency))))
	status := fiber.StatusOK
	if s, ok := w.Statuses[bank]; ok {
		status = s
	}
	return c.SendStatus(status)
}

type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []element  `xml:",any"`
}
