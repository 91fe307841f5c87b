package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecoalliance/cotizador/internal/domain/models"
	"github.com/ecoalliance/cotizador/internal/render/pdf"
)

// quote [-f request.json] [--save] [--pdf out.pdf]
func quoteCmd() *cobra.Command {
	var (
		file    string
		save    bool
		pdfPath string
		company string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Build a quotation from a JSON request",
		Long:  "Reads a quotation request (the /api/cotizacion body) from a file or stdin and prints the result envelope.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			var req models.QuotationRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("invalid quotation request: %w", err)
			}

			svc, err := newQuotationService(save)
			if err != nil {
				return err
			}

			envelope, err := svc.Process(cmd.Context(), req)
			if perr := printJSON(cmd.OutOrStdout(), envelope); perr != nil {
				return perr
			}
			if err != nil {
				return err
			}
			if envelope.Status != models.StatusSuccess {
				return fmt.Errorf("quotation failed: %s", envelope.Message)
			}

			if pdfPath != "" {
				doc, err := pdf.New(company).Generate(*envelope.Quotation)
				if err != nil {
					return fmt.Errorf("render pdf: %w", err)
				}
				if err := os.WriteFile(pdfPath, doc, 0o644); err != nil {
					return fmt.Errorf("write pdf: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "request file, - for stdin")
	cmd.Flags().BoolVar(&save, "save", false, "store the quotation in QUOTATIONS_DIR")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the quotation as a PDF to this path")
	cmd.Flags().StringVar(&company, "company", "Eco Alliance", "company name printed on the PDF")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}
