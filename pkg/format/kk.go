package format

import (
	"fmt"
	"strings"

	"github.com/tinyland-inc/dokbot/pkg/extractor"
)

func renderKK(d extractor.Document) string {
	b := &doc{d: d}
	b.header("👨‍👩‍👧‍👦", "HASIL EKSTRAKSI KARTU KELUARGA")
	b.code("📝", "Nomor KK", "nomor_kk")
	b.line("🔢", "Kode Keluarga", "kode_keluarga")
	b.WriteString("\n")

	b.section("👑", "DATA KEPALA KELUARGA")
	head := &doc{d: d.Object("kepala_keluarga")}
	head.line("👤", "Nama", "nama")
	head.code("🆔", "NIK", "nik")
	head.line("📍", "Alamat", "alamat")
	head.line("🏘️", "RT/RW", "rt_rw")
	head.line("🏙️", "Desa/Kelurahan", "desa_kelurahan")
	head.line("🌆", "Kecamatan", "kecamatan")
	head.line("🏢", "Kabupaten/Kota", "kabupaten_kota")
	head.line("📮", "Kode Pos", "kode_pos")
	head.line("🌏", "Provinsi", "provinsi")
	b.WriteString(head.String())

	members := d.List("anggota_keluarga")
	if len(members) == 0 {
		b.WriteString("\n👥 *Anggota Keluarga:* " + extractor.NotDetected + "\n")
	} else {
		b.WriteString("\n")
		b.section("👨‍👩‍👧‍👦", "ANGGOTA KELUARGA")
		relations := d.List("status_hubungan")
		parents := d.List("orang_tua")
		for i, m := range members {
			writeMember(&b.Builder, i+1, m, firstByName(relations, m), firstByName(parents, m))
			if i < len(members)-1 {
				b.WriteString("\n")
			}
		}
	}

	if d.Present("tanggal_penerbitan") {
		fmt.Fprintf(b, "\n📅 *Tanggal Penerbitan:* %s\n", d.Get("tanggal_penerbitan"))
	}
	b.WriteString("\n" + Separator + "\n" + legalNotice)
	return b.String()
}

func writeMember(b *strings.Builder, n int, m, rel, parents extractor.Document) {
	fmt.Fprintf(b, "%s *%d. %s*\n", memberEmoji(m, rel), n, m.Field("nama"))
	fmt.Fprintf(b, "   🆔 NIK: `%s`\n", m.Field("nik"))
	fmt.Fprintf(b, "   ⚧️ Jenis Kelamin: %s\n", m.Field("jenis_kelamin"))
	fmt.Fprintf(b, "   🎂 TTL: %s, %s\n", m.Field("tempat_lahir"), m.Field("tanggal_lahir"))
	fmt.Fprintf(b, "   🕌 Agama: %s\n", m.Field("agama"))
	fmt.Fprintf(b, "   🎓 Pendidikan: %s\n", m.Field("pendidikan"))
	fmt.Fprintf(b, "   💼 Pekerjaan: %s\n", m.Field("pekerjaan"))

	if rel.Exists() {
		fmt.Fprintf(b, "   💍 Status Pernikahan: %s\n", rel.Field("status_pernikahan"))
		fmt.Fprintf(b, "   👨‍👩‍👧‍👦 Hubungan Keluarga: %s\n", rel.Field("hubungan_keluarga"))
		fmt.Fprintf(b, "   🌐 Kewarganegaraan: %s\n", rel.Field("kewarganegaraan"))
	}
	if parents.Exists() {
		b.WriteString("   👨‍👩 Orang Tua:\n")
		fmt.Fprintf(b, "   ┣ 👨 Ayah: %s\n", parents.Field("ayah"))
		fmt.Fprintf(b, "   ┗ 👩 Ibu: %s\n", parents.Field("ibu"))
	}
}

// firstByName returns the first record whose nama equals the member's.
// Members sharing a name all bind to the same record.
func firstByName(records []extractor.Document, member extractor.Document) extractor.Document {
	name, hasName := member.Lookup("nama")
	for _, r := range records {
		other, ok := r.Lookup("nama")
		if ok == hasName && other == name {
			return r
		}
	}
	return extractor.Document{}
}

func memberEmoji(m, rel extractor.Document) string {
	role := strings.ToLower(rel.Get("hubungan_keluarga"))
	male := strings.ToLower(m.Get("jenis_kelamin")) == "laki-laki"
	switch {
	case strings.Contains(role, "kepala"):
		if male {
			return "👨‍💼"
		}
		return "👩‍💼"
	case strings.Contains(role, "suami"):
		return "👨"
	case strings.Contains(role, "istri"):
		return "👩"
	case strings.Contains(role, "anak"):
		if male {
			return "👦"
		}
		return "👧"
	default:
		return "👤"
	}
}
