package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hongminglow/bank-portal/internal/models"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printUsers(w io.Writer, users []models.User) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tACCOUNT\tBALANCE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", u.ID, u.Name, u.Phone, u.AccountType, u.Balance)
	}
	tw.Flush()
}

func printEmployees(w io.Writer, employees []models.Employee) {
	if len(employees) == 0 {
		fmt.Fprintln(w, "no employees")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tCREATED")
	for _, e := range employees {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Phone, e.CreatedAt.Format(time.DateOnly))
	}
	tw.Flush()
}

func printHistory(w io.Writer, txs []models.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "no transactions")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tCOUNTERPARTY\tBALANCE")
	for _, tx := range txs {
		amount := fmt.Sprintf("+%d", tx.Amount)
		if tx.Direction == models.Debit {
			amount = fmt.Sprintf("-%d", tx.Amount)
		}
		counterparty := tx.Counterparty
		if counterparty == "" {
			counterparty = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", tx.CreatedAt.Format(time.DateTime), tx.Type, amount, counterparty, tx.ResultingBalance)
	}
	tw.Flush()
}
