package bot

import (
	"strings"

	"github.com/tinyland-inc/dokbot/pkg/export"
	"github.com/tinyland-inc/dokbot/pkg/extractor"
)

type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandPing
	CommandHelp
	CommandDebug
	CommandExtract
)

// Command is a parsed chat command. DocType and Format are set for
// CommandExtract only; an empty Format means no export file.
type Command struct {
	Kind    CommandKind
	Text    string
	DocType extractor.DocumentType
	Format  export.Format
}

// aliases maps legacy tokens to document types.
var aliases = map[string]extractor.DocumentType{
	"ptk": extractor.KTP,
}

// ParseCommand recognizes fixed, case-insensitive tokens. Anything else is
// CommandNone.
func ParseCommand(text string) Command {
	raw := strings.TrimSpace(text)
	token := strings.ToLower(raw)
	cmd := Command{Kind: CommandNone, Text: raw}

	switch token {
	case "ping":
		cmd.Kind = CommandPing
		return cmd
	case "help":
		cmd.Kind = CommandHelp
		return cmd
	case "debug":
		cmd.Kind = CommandDebug
		return cmd
	}

	name, suffix, hasSuffix := strings.Cut(token, ".")
	var f export.Format
	if hasSuffix {
		parsed, ok := export.ParseFormat(suffix)
		if !ok {
			return cmd
		}
		f = parsed
	}

	dt, ok := extractor.ParseDocumentType(name)
	if !ok {
		dt, ok = aliases[name]
	}
	if !ok {
		return cmd
	}
	cmd.Kind = CommandExtract
	cmd.DocType = dt
	cmd.Format = f
	return cmd
}

const HelpText = `*Dokumen Extractor Bot*

*Perintah:*
- ` + "`ping`" + ` - Cek apakah bot aktif
- ` + "`debug`" + ` - Menampilkan detail pesan (reply ke media untuk melihat atributnya)
- ` + "`ktp`" + ` - Ekstrak data dari gambar KTP (reply ke gambar KTP)
- ` + "`kk`" + ` - Ekstrak data dari gambar Kartu Keluarga (reply ke gambar KK)
- ` + "`ijazah`" + ` - Ekstrak data dari gambar Ijazah (reply ke gambar Ijazah)
- ` + "`sim`" + ` - Ekstrak data dari gambar SIM (reply ke gambar SIM)
- ` + "`help`" + ` - Tampilkan bantuan ini

*Ekspor file:*
Tambahkan akhiran ` + "`.txt`" + `, ` + "`.json`" + ` atau ` + "`.xlsx`" + ` pada perintah, misalnya ` + "`ktp.json`" + `.

*Contoh:*
> Reply gambar KTP dengan pesan "ktp"
> Reply gambar Kartu Keluarga dengan pesan "kk.txt"
> Tunggu proses ekstraksi selesai
> Data dokumen akan ditampilkan secara lengkap`
