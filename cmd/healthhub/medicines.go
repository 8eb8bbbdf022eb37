package main

import (
	"context"
	"flag"
	"strings"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

func (c *cli) medicines(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	rest := args[1:]

	switch args[0] {
	case "list":
		list, err := c.client.Medicines.FetchAll(ctx)
		if err != nil {
			return err
		}
		c.printMedicines(list)
		return nil

	case "show":
		if len(rest) != 1 {
			return errUsage
		}
		m, err := c.client.Medicines.Fetch(ctx, rest[0])
		if err != nil {
			return err
		}
		c.printMedicine(*m)
		return nil

	case "add":
		return c.addMedicine(ctx, rest)

	case "update":
		if len(rest) == 0 {
			return errUsage
		}
		return c.updateMedicine(ctx, rest[0], rest[1:])

	case "delete":
		if len(rest) != 1 {
			return errUsage
		}
		if err := c.client.Medicines.Delete(ctx, rest[0]); err != nil {
			return err
		}
		c.printf("Medicine deleted\n")
		return nil
	}
	return errUsage
}

func (c *cli) addMedicine(ctx context.Context, args []string) error {
	fs := newFlags("medicines add")
	var form model.MedicineForm
	fs.StringVar(&form.Name, "name", "", "")
	fs.StringVar(&form.Dosage, "dosage", "", "")
	fs.StringVar(&form.Frequency, "frequency", string(model.FrequencyOnceDaily), "")
	fs.StringVar(&form.Instructions, "instructions", "", "")
	fs.IntVar(&form.StockQuantity, "stock", 0, "")
	fs.StringVar(&form.ExpiryDate, "expiry", "", "")
	fs.StringVar(&form.Category, "category", string(model.CategoryGeneral), "")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.validate.Validate(form); err != nil {
		return err
	}
	in, err := form.Input()
	if err != nil {
		return errors.Validation("expiry_date must be YYYY-MM-DD", err)
	}

	m, err := c.client.Medicines.Create(ctx, in)
	if err != nil {
		return err
	}
	c.printf("Added %s (%s)\n", m.Name, m.ID)
	return nil
}

// updateMedicine sends only the flags given on the command line.
func (c *cli) updateMedicine(ctx context.Context, id string, args []string) error {
	fs := newFlags("medicines update")
	name := fs.String("name", "", "")
	dosage := fs.String("dosage", "", "")
	frequency := fs.String("frequency", "", "")
	instructions := fs.String("instructions", "", "")
	stock := fs.Int("stock", 0, "")
	expiry := fs.String("expiry", "", "")
	category := fs.String("category", "", "")
	fs.BoolVar(new(bool), "clear-instructions", false, "")
	fs.BoolVar(new(bool), "clear-expiry", false, "")
	fs.BoolVar(new(bool), "clear-image", false, "")
	if err := parse(fs, args); err != nil {
		return err
	}

	var patch model.MedicinePatch
	var verr error
	fs.Visit(func(f *flag.Flag) {
		if verr != nil {
			return
		}
		switch f.Name {
		case "name":
			v := strings.TrimSpace(*name)
			if v == "" {
				verr = errors.Validation("name is required", nil)
				return
			}
			patch.Name = &v
		case "dosage":
			v := strings.TrimSpace(*dosage)
			if v == "" {
				verr = errors.Validation("dosage is required", nil)
				return
			}
			patch.Dosage = &v
		case "frequency":
			v := model.Frequency(*frequency)
			if !v.Valid() {
				verr = errors.Validation("frequency is not a supported value", nil)
				return
			}
			patch.Frequency = &v
		case "instructions":
			v := strings.TrimSpace(*instructions)
			patch.Instructions = &v
		case "stock":
			if *stock < 0 {
				verr = errors.Validation("stock_quantity must not be negative", nil)
				return
			}
			v := *stock
			patch.StockQuantity = &v
		case "expiry":
			d, err := model.ParseDate(*expiry)
			if err != nil {
				verr = errors.Validation("expiry_date must be YYYY-MM-DD", err)
				return
			}
			patch.ExpiryDate = &d
		case "category":
			v := model.Category(*category)
			if !v.Valid() {
				verr = errors.Validation("category is not a supported value", nil)
				return
			}
			patch.Category = &v
		case "clear-instructions":
			patch.ClearInstructions = f.Value.String() == "true"
		case "clear-expiry":
			patch.ClearExpiryDate = f.Value.String() == "true"
		case "clear-image":
			patch.ClearPrescriptionImage = f.Value.String() == "true"
		}
	})
	if verr != nil {
		return verr
	}

	m, err := c.client.Medicines.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	c.printMedicine(*m)
	return nil
}
