package main

import (
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service/emergency"
)

const dateFormat = "2006-01-02"

func (c *cli) table(header string, rows func(w *tabwriter.Writer)) {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	w.Write([]byte(header + "\n"))
	rows(w)
	w.Flush()
}

func (c *cli) printMedicines(list []model.Medicine) {
	if len(list) == 0 {
		c.printf("No medicines yet\n")
		return
	}
	now := c.now()
	c.table("ID\tNAME\tDOSAGE\tFREQUENCY\tSTOCK\tEXPIRES\tSTATUS", func(w *tabwriter.Writer) {
		for _, m := range list {
			expires := "-"
			if m.ExpiryDate != nil {
				expires = m.ExpiryDate.Format(dateFormat)
			}
			writeRow(w, m.ID, m.Name, m.Dosage, string(m.Frequency), strconv.Itoa(m.StockQuantity), expires, expiryBadge(m.ExpiryStatus(now)))
		}
	})
}

func (c *cli) printMedicine(m model.Medicine) {
	c.printf("%s %s\n", m.Name, m.Dosage)
	c.printf("  id:        %s\n", m.ID)
	c.printf("  frequency: %s\n", m.Frequency)
	c.printf("  category:  %s\n", m.Category)
	c.printf("  stock:     %d\n", m.StockQuantity)
	if m.ExpiryDate != nil {
		c.printf("  expires:   %s\n", m.ExpiryDate.Format(dateFormat))
	}
	if badge := expiryBadge(m.ExpiryStatus(c.now())); badge != "-" {
		c.printf("  status:    %s\n", badge)
	}
	if m.Instructions != nil && *m.Instructions != "" {
		c.printf("  notes:     %s\n", *m.Instructions)
	}
}

func (c *cli) printFamily(members []model.FamilyMember) {
	if len(members) == 0 {
		c.printf("No family members yet\n")
		return
	}
	c.table("NAME\tEMAIL\tBLOOD TYPE", func(w *tabwriter.Writer) {
		for _, m := range members {
			bt := "-"
			if m.BloodType != nil {
				bt = *m.BloodType
			}
			writeRow(w, m.FullName, m.Email, bt)
		}
	})
}

func (c *cli) printExpiries(list []model.ExpiringMedicine) {
	c.table("NAME\tEXPIRES\tSTOCK", func(w *tabwriter.Writer) {
		for _, m := range list {
			expires := "-"
			if m.ExpiryDate != nil {
				expires = m.ExpiryDate.Format(dateFormat)
			}
			writeRow(w, m.Name, expires, strconv.Itoa(m.StockQuantity))
		}
	})
}

func (c *cli) printRecords(list []model.HealthRecord) {
	if len(list) == 0 {
		c.printf("No doses logged yet\n")
		return
	}
	c.table("TAKEN AT\tMEDICINE\tSTATUS\tNOTES", func(w *tabwriter.Writer) {
		for _, r := range list {
			notes := ""
			if r.Notes != nil {
				notes = *r.Notes
			}
			writeRow(w, r.TakenAt.Local().Format("2006-01-02 15:04"), r.MedicineID, string(r.Status), notes)
		}
	})
}

func (c *cli) printCard(card emergency.Card) {
	c.printf("EMERGENCY MEDICAL CARD\n\n")
	c.printf("Patient:     %s\n", card.PatientName)
	c.printf("Blood type:  %s\n", card.BloodType)
	c.printf("Allergies:   %s\n", strings.Join(card.AllergiesText(), ", "))
	c.printf("Conditions:  %s\n", strings.Join(card.Conditions, ", "))
	if len(card.Medications) == 0 {
		c.printf("Medications: See medication list\n")
	} else {
		c.printf("Medications: %s\n", strings.Join(card.Medications, ", "))
	}
	c.printf("\nContacts:\n")
	c.table("NAME\tPHONE\tRELATION", func(w *tabwriter.Writer) {
		for _, ct := range card.Contacts {
			writeRow(w, ct.Name, ct.Phone, ct.Relation)
		}
	})
}

func expiryBadge(s model.ExpiryStatus) string {
	switch s {
	case model.ExpiryExpired:
		return "Expired"
	case model.ExpiryExpiring:
		return "Expiring Soon"
	}
	return "-"
}

func writeRow(w *tabwriter.Writer, cols ...string) {
	w.Write([]byte(strings.Join(cols, "\t") + "\n"))
}
