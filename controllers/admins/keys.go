package admins

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/inventory"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// ImportKeysHandler POST /admin/products/{id}/keys
//
// Multipart upload of a key file (one code per line, first CSV field). The
// file is parsed in memory and never written to disk. Codes already present
// anywhere in the inventory are skipped; the response reports both counts.
func ImportKeysHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := findProduct(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(4 << 20); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") &&
		!strings.HasSuffix(strings.ToLower(header.Filename), ".txt") {
		utils.WriteError(w, http.StatusBadRequest, "Key file must be .csv or .txt")
		return
	}

	codes, err := inventory.ParseKeyFile(file)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Could not parse key file")
		return
	}
	if len(codes) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Key file contains no codes")
		return
	}

	imported, err := inventory.ImportKeys(database.DB, product.ID, codes)
	if err != nil {
		log.Printf("[admin/keys] import for product %d: %v", product.ID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Keys imported and stock updated",
		Data: map[string]interface{}{
			"imported": imported,
			"skipped":  len(codes) - imported,
		},
	})
}

// decodeJSON is the shared strict decoder for the admin JSON endpoints.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return err
	}
	return nil
}
