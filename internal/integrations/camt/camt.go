// Package camt parses CAMT.053-style XML bank statements. The closing
// balance maps to a balance checkpoint and booked entries map to one-time
// transactions, giving users a way to seed the forecast from a real
// statement instead of typing everything in.
package camt

import (
	"fmt"
	"io"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/avelin/cashflow-service/internal/money"
)

const dateLayout = "2006-01-02"

// Entry is one booked statement line
type Entry struct {
	Date        time.Time
	Amount      decimal.Decimal // signed: credits positive, debits negative
	Description string
}

// Statement is the parsed subset of a CAMT statement the forecast needs
type Statement struct {
	ClosingBalance decimal.Decimal
	ClosingDate    time.Time
	HasClosing     bool
	Entries        []Entry
}

// Parser reads CAMT statement documents
type Parser struct {
	log *logrus.Logger
}

// NewParser initializes a new statement parser
func NewParser(log *logrus.Logger) *Parser {
	return &Parser{log: log}
}

// Parse extracts the closing balance and booked entries from a statement
func (p *Parser) Parse(r io.Reader) (*Statement, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse statement XML: %v", err)
	}

	stmt := &Statement{}
	if err := p.parseClosingBalance(doc, stmt); err != nil {
		return nil, err
	}
	if err := p.parseEntries(doc, stmt); err != nil {
		return nil, err
	}

	p.log.Infof("Parsed statement: %d entries, closing balance present: %v", len(stmt.Entries), stmt.HasClosing)
	return stmt, nil
}

// parseClosingBalance finds the CLBD balance element, if present
func (p *Parser) parseClosingBalance(doc *etree.Document, stmt *Statement) error {
	for _, bal := range doc.FindElements("//Stmt/Bal") {
		code := bal.FindElement("./Tp/CdOrPrtry/Cd")
		if code == nil || code.Text() != "CLBD" {
			continue
		}
		amt := bal.FindElement("./Amt")
		if amt == nil {
			return fmt.Errorf("closing balance has no amount")
		}
		amount, err := money.Parse(amt.Text())
		if err != nil {
			return fmt.Errorf("invalid closing balance amount %q", amt.Text())
		}
		if ind := bal.FindElement("./CdtDbtInd"); ind != nil && ind.Text() == "DBIT" {
			amount = amount.Neg()
		}
		dateEl := bal.FindElement("./Dt/Dt")
		if dateEl == nil {
			return fmt.Errorf("closing balance has no date")
		}
		date, err := time.Parse(dateLayout, dateEl.Text())
		if err != nil {
			return fmt.Errorf("invalid closing balance date %q", dateEl.Text())
		}
		stmt.ClosingBalance = amount
		stmt.ClosingDate = date
		stmt.HasClosing = true
		return nil
	}
	return nil
}

// parseEntries collects booked statement lines
func (p *Parser) parseEntries(doc *etree.Document, stmt *Statement) error {
	for _, ntry := range doc.FindElements("//Stmt/Ntry") {
		if status := ntry.FindElement("./Sts"); status != nil && status.Text() != "BOOK" {
			p.log.Debugf("Skipping entry with status %s", status.Text())
			continue
		}
		amt := ntry.FindElement("./Amt")
		if amt == nil {
			return fmt.Errorf("statement entry has no amount")
		}
		amount, err := money.Parse(amt.Text())
		if err != nil {
			return fmt.Errorf("invalid entry amount %q", amt.Text())
		}
		if ind := ntry.FindElement("./CdtDbtInd"); ind != nil && ind.Text() == "DBIT" {
			amount = amount.Neg()
		}
		dateEl := ntry.FindElement("./BookgDt/Dt")
		if dateEl == nil {
			dateEl = ntry.FindElement("./ValDt/Dt")
		}
		if dateEl == nil {
			return fmt.Errorf("statement entry has no booking or value date")
		}
		date, err := time.Parse(dateLayout, dateEl.Text())
		if err != nil {
			return fmt.Errorf("invalid entry date %q", dateEl.Text())
		}

		description := ""
		if info := ntry.FindElement("./NtryDtls/TxDtls/RmtInf/Ustrd"); info != nil {
			description = info.Text()
		} else if info := ntry.FindElement("./AddtlNtryInf"); info != nil {
			description = info.Text()
		}

		stmt.Entries = append(stmt.Entries, Entry{
			Date:        date,
			Amount:      amount,
			Description: description,
		})
	}
	return nil
}
