// Package format renders extraction results as chat messages.
package format

import (
	"fmt"
	"strings"

	"github.com/tinyland-inc/dokbot/pkg/extractor"
)

const (
	Separator = "━━━━━━━━━━━━━━━━━━━━━━"

	UnknownResponse = "❌ Format respons tidak dikenal"

	legalNotice       = "⚠️ *PERHATIAN:* _Gunakan informasi ini hanya untuk keperluan yang sah dan legal. Penyalahgunaan data pribadi dapat dikenakan sanksi hukum._"
	legalNoticeIjazah = "⚠️ *PERHATIAN:* _Gunakan informasi ini hanya untuk keperluan yang sah dan legal. Penyalahgunaan data dapat dikenakan sanksi hukum._"
)

var rejections = map[extractor.DocumentType]string{
	extractor.KTP:    "❌ Dokumen yang dikirim bukan merupakan KTP.",
	extractor.KK:     "❌ Dokumen yang dikirim bukan merupakan Kartu Keluarga.",
	extractor.Ijazah: "❌ Dokumen yang dikirim bukan merupakan Ijazah pendidikan.",
	extractor.SIM:    "❌ Dokumen yang dikirim bukan merupakan Surat Izin Mengemudi (SIM).",
}

var renderers = map[extractor.DocumentType]func(extractor.Document) string{
	extractor.KTP:    renderKTP,
	extractor.KK:     renderKK,
	extractor.Ijazah: renderIjazah,
	extractor.SIM:    renderSIM,
}

// Rejection returns the fixed message for an image that is not a docType.
func Rejection(docType extractor.DocumentType) string {
	return rejections[docType]
}

// Error renders an error result on one line.
func Error(res *extractor.Result) string {
	return fmt.Sprintf("❌ Error: %s (Code: %d)", res.Message, res.Code)
}

// Format renders res for docType. It never panics.
func Format(docType extractor.DocumentType, res *extractor.Result) string {
	if res == nil {
		return UnknownResponse
	}
	if res.Status == extractor.StatusError {
		return Error(res)
	}
	if !res.Succeeded() {
		return UnknownResponse
	}

	parsed := res.Parsed()
	render, ok := renderers[docType]
	if !ok || !parsed.Exists() {
		return UnknownResponse
	}
	switch parsed.Status() {
	case docType.RejectionStatus():
		return rejections[docType]
	case extractor.ParsedStatusSuccess:
		return render(parsed)
	default:
		return UnknownResponse
	}
}

// doc wraps a builder with the field line helpers shared by all renderers.
type doc struct {
	strings.Builder
	d extractor.Document
}

func (b *doc) line(emoji, label, path string) {
	fmt.Fprintf(b, "%s *%s:* %s\n", emoji, label, b.d.Field(path))
}

func (b *doc) code(emoji, label, path string) {
	fmt.Fprintf(b, "%s *%s:* `%s`\n", emoji, label, b.d.Field(path))
}

func (b *doc) optional(emoji, label, path string) {
	if b.d.Present(path) {
		fmt.Fprintf(b, "%s *%s:* %s\n", emoji, label, b.d.Get(path))
	}
}

func (b *doc) header(emoji, title string) {
	fmt.Fprintf(b, "%s *%s* %s\n%s\n\n", emoji, title, emoji, Separator)
}

func (b *doc) section(emoji, title string) {
	fmt.Fprintf(b, "%s *%s* %s\n", emoji, title, emoji)
}

func renderKTP(d extractor.Document) string {
	b := &doc{d: d}
	b.header("🆔", "HASIL EKSTRAKSI KTP")
	b.code("📌", "NIK", "nik")
	b.line("👤", "Nama", "nama")
	b.line("🎂", "TTL", "tempat_tanggal_lahir")
	b.line("⚧️", "Jenis Kelamin", "jenis_kelamin")
	b.line("🩸", "Golongan Darah", "golongan_darah")
	b.WriteString("\n")
	b.section("📍", "DOMISILI")
	b.line("🏠", "Alamat", "alamat")
	b.line("🏘️", "RT/RW", "rt_rw")
	b.line("🏙️", "Kel/Desa", "kel_desa")
	b.line("🌆", "Kecamatan", "kecamatan")
	b.WriteString("\n")
	b.section("ℹ️", "INFORMASI LAINNYA")
	b.line("🕌", "Agama", "agama")
	b.line("💍", "Status Perkawinan", "status_perkawinan")
	b.line("💼", "Pekerjaan", "pekerjaan")
	b.line("🌐", "Kewarganegaraan", "kewarganegaraan")
	b.line("⏱️", "Berlaku Hingga", "berlaku_hingga")
	b.line("📅", "Dikeluarkan di", "dikeluarkan_di")
	b.WriteString("\n" + Separator + "\n" + legalNotice)
	return b.String()
}

func renderIjazah(d extractor.Document) string {
	b := &doc{d: d}
	b.header(ijazahEmoji(d.Get("jenis_ijazah")), "HASIL EKSTRAKSI IJAZAH")
	b.line("🏆", "Jenis Ijazah", "jenis_ijazah")
	b.line("🏛️", "Kementerian Penerbit", "kementerian_penerbit")
	b.WriteString("\n")
	b.section("🏫", "INSTITUSI PENDIDIKAN")
	b.line("📍", "Nama Institusi", "nama_institusi")
	b.line("📊", "Akreditasi", "akreditasi")
	b.line("🎯", "Program Studi/Jurusan", "program_studi_jurusan")
	b.line("🏛️", "Institusi Asal", "institusi_asal")
	b.WriteString("\n")
	b.section("👤", "INFORMASI PEMILIK")
	b.line("📝", "Nama Peserta Didik", "nama_peserta_didik")
	b.line("🎂", "TTL", "tempat_tanggal_lahir")
	b.line("👨‍👩‍👧‍👦", "Nama Orang Tua", "nama_orang_tua")
	b.line("🔢", "Nomor Induk", "nomor_induk")
	b.WriteString("\n")
	b.section("📑", "INFORMASI DOKUMEN")
	b.line("📅", "Tanggal Penerbitan", "tanggal_penerbitan")
	b.line("✒️", "Pejabat Pengesah", "pejabat_pengesah")
	b.line("🆔", "Nomor Identitas Pejabat", "nomor_identitas_pejabat")
	b.line("📊", "Nomor Seri", "nomor_seri")
	b.WriteString("\n" + Separator + "\n" + legalNoticeIjazah)
	return b.String()
}

// ijazahEmoji picks a school building for primary and secondary diplomas.
func ijazahEmoji(kind string) string {
	kind = strings.ToUpper(kind)
	for _, grade := range []string{"SD", "SMP", "SMA", "SMK"} {
		if strings.Contains(kind, grade) {
			return "🏫"
		}
	}
	return "🎓"
}

func renderSIM(d extractor.Document) string {
	b := &doc{d: d}
	b.header(simEmoji(d.GetOr("golongan_sim", "X")), "HASIL EKSTRAKSI SIM")
	b.code("🎫", "Nomor SIM", "nomor_sim")
	b.line("🚦", "Golongan SIM", "golongan_sim")
	b.WriteString("\n")
	b.section("👤", "DATA PEMILIK")
	b.line("📝", "Nama", "nama")
	b.line("🎂", "TTL", "tempat_tanggal_lahir")
	b.line("⚧️", "Jenis Kelamin", "jenis_kelamin")
	b.line("🩸", "Golongan Darah", "golongan_darah")
	b.line("📏", "Tinggi", "tinggi")
	b.line("💼", "Pekerjaan", "pekerjaan")
	b.WriteString("\n")
	b.section("📍", "ALAMAT")
	b.line("🏠", "Alamat", "alamat")
	b.line("🏘️", "RT/RW", "rt_rw")
	b.optional("🏙️", "Desa/Kelurahan", "desa_kelurahan")
	b.optional("🌆", "Kecamatan", "kecamatan")
	b.optional("🏢", "Kota", "kota")
	b.WriteString("\n")
	b.section("📄", "INFORMASI DOKUMEN")
	b.line("⏱️", "Berlaku Hingga", "berlaku_hingga")
	b.line("📍", "Dikeluarkan di", "dikeluarkan_di")
	b.optional("🏛️", "Instansi Penerbit", "instansi_penerbit")
	b.WriteString("\n" + Separator + "\n" + legalNotice)
	return b.String()
}

// simEmoji maps the licence class to a vehicle; the first matching class
// letter in A, B, C, D order wins.
func simEmoji(class string) string {
	switch {
	case strings.Contains(class, "A"):
		return "🚗"
	case strings.Contains(class, "B"):
		return "🚐"
	case strings.Contains(class, "C"):
		return "🏍️"
	case strings.Contains(class, "D"):
		return "🚜"
	default:
		return "🚘"
	}
}
